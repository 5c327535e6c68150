package cmd

import (
	"fmt"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/spf13/cobra"
)

// createCmd 表示create命令，用于创建新队列
var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new queue",
	Long: `Create a new unbounded queue.
The initial capacity only sizes the internal buffer; the queue grows as needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		initialCapacity, _ := cmd.Flags().GetInt("initial-capacity")
		if initialCapacity < 0 {
			return fmt.Errorf("initial capacity must not be negative")
		}

		opts := queueservice.QueueOptions{
			InitialCapacity: initialCapacity,
		}

		service := GetQueueService()
		if err := service.CreateQueue(name, opts); err != nil {
			return fmt.Errorf("failed to create queue: %w", err)
		}

		fmt.Printf("Queue '%s' created successfully.\n", name)
		if initialCapacity > 0 {
			fmt.Printf("Initial capacity: %d\n", initialCapacity)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().IntP("initial-capacity", "c", 0, "Initial buffer size (0 for default)")
}
