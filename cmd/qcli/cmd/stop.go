package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// stopCmd 表示stop命令，用于停止队列
var stopCmd = &cobra.Command{
	Use:   "stop [queue-name]",
	Short: "Stop a queue",
	Long: `Stop a queue. Consumers keep receiving the remaining items,
then every pop returns without an item. Stopping twice has no further effect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		service := GetQueueService()
		if err := service.StopQueue(queueName); err != nil {
			return fmt.Errorf("failed to stop queue: %w", err)
		}

		stats, err := service.QueueStats(queueName)
		if err != nil {
			return err
		}

		fmt.Printf("Queue '%s' stopped, %d item(s) left to drain\n", queueName, stats.Size)
		return nil
	},
}

// deleteCmd 表示delete命令，用于删除队列
var deleteCmd = &cobra.Command{
	Use:     "delete [queue-name]",
	Short:   "Stop and remove a queue",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := GetQueueService().DeleteQueue(args[0]); err != nil {
			return fmt.Errorf("failed to delete queue: %w", err)
		}
		fmt.Printf("Queue '%s' deleted\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(deleteCmd)
}
