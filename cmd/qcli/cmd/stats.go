package cmd

import (
	"fmt"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/spf13/cobra"
)

// statsCmd 表示stats命令，用于显示队列的统计信息
var statsCmd = &cobra.Command{
	Use:   "stats [queue-name]",
	Short: "Display queue statistics",
	Long: `Display detailed statistics for a specified queue.
This includes size, state, operation counts, blocked pops and pushes after stop.
Use --json to print the queue snapshot in the export format instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 获取队列名称
		queueName := args[0]

		// 获取参数
		asJSON, _ := cmd.Flags().GetBool("json")

		// 获取队列服务
		service := GetQueueService()

		// JSON模式：输出快照，不取出元素
		if asJSON {
			data, err := service.Snapshot(queueName)
			if err != nil {
				return fmt.Errorf("failed to get queue snapshot: %w", err)
			}

			raw, err := queueservice.SerializeQueueData(data)
			if err != nil {
				return fmt.Errorf("failed to encode queue snapshot: %w", err)
			}

			fmt.Println(string(raw))
			return nil
		}

		// 获取统计信息
		stats, err := service.QueueStats(queueName)
		if err != nil {
			return fmt.Errorf("failed to get queue statistics: %w", err)
		}

		// 格式化并显示统计信息
		fmt.Printf("Statistics for queue '%s':\n\n", queueName)
		fmt.Print(queueservice.FormatQueueStats(stats))

		// 队列已停止但仍有元素时提示还需要消费
		if stats.Stopped && !stats.Drained() {
			fmt.Printf("\n%d item(s) still waiting to be drained\n", stats.Size)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	// 添加参数
	statsCmd.Flags().Bool("json", false, "Print the queue snapshot as JSON")
}
