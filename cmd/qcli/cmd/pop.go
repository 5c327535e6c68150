package cmd

import (
	"errors"
	"fmt"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/spf13/cobra"
)

// popCmd 表示pop命令，用于从队列取出项目
var popCmd = &cobra.Command{
	Use:   "pop [queue-name]",
	Short: "Remove and display items from a queue",
	Long: `Remove and display one or more items from a specified queue.
By default pop does not block; use --timeout to wait for items.`,
	Aliases: []string{"dequeue"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		count, _ := cmd.Flags().GetInt("count")
		silent, _ := cmd.Flags().GetBool("silent")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		joined, _ := cmd.Flags().GetBool("join")

		if count < 0 {
			return fmt.Errorf("count must be a non-negative number")
		}
		if count == 0 {
			count = 1
		}

		service := GetQueueService()

		var popped int
		var items []string
		for i := 0; i < count; i++ {
			item, err := service.PopItem(queueName, timeout)
			if err != nil {
				if i == 0 {
					return fmt.Errorf("failed to pop item: %w", err)
				}
				if errors.Is(err, queueservice.ErrQueueStopped) {
					fmt.Printf("Queue '%s' is stopped and drained after %d item(s)\n", queueName, i)
				} else {
					fmt.Printf("Popped %d item(s) before encountering an error: %v\n", i, err)
				}
				break
			}

			popped++
			items = append(items, item)
			if !silent && !joined {
				fmt.Printf("Item %d: %s\n", i+1, item)
			}
		}

		// 以逗号分隔输出，可直接作为 push --items 的参数
		if joined && !silent {
			fmt.Println(queueservice.FormatItems(items))
		}

		if silent || popped > 1 {
			fmt.Printf("Successfully popped %d item(s) from queue '%s'\n", popped, queueName)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(popCmd)

	popCmd.Flags().IntP("count", "c", 1, "Number of items to pop")
	popCmd.Flags().BoolP("silent", "s", false, "Silent mode (don't print items)")
	popCmd.Flags().BoolP("join", "j", false, "Print popped items on one comma separated line")
	popCmd.Flags().DurationP("timeout", "t", 0, "How long to wait for each item (0 to not block)")
}
