package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/spf13/cobra"
)

// monitorCmd 表示monitor命令，用于实时监控队列状态
var monitorCmd = &cobra.Command{
	Use:   "monitor [queue-name]",
	Short: "Monitor queue activity in real-time",
	Long: `Watch queue statistics update in real-time.
Monitoring ends on Ctrl+C or once the queue is stopped and drained.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("interval must be positive")
		}

		service := GetQueueService()

		if _, err := service.GetQueue(queueName); err != nil {
			return fmt.Errorf("queue '%s' not found", queueName)
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		fmt.Printf("Monitoring queue '%s' (refresh: %v, press Ctrl+C to stop)...\n\n",
			queueName, interval)

		// 记录前一次的统计信息，用于计算变化率
		var prevStats struct {
			Pushed uint64
			Popped uint64
			Time   time.Time
		}
		prevStats.Time = time.Now()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats, err := service.QueueStats(queueName)
				if err != nil {
					return fmt.Errorf("failed to get queue statistics: %w", err)
				}

				now := time.Now()
				elapsed := now.Sub(prevStats.Time).Seconds()
				pushRate := float64(stats.Pushed-prevStats.Pushed) / elapsed
				popRate := float64(stats.Popped-prevStats.Popped) / elapsed

				fmt.Print("\033[H\033[2J") // 清屏，移动光标到左上角

				fmt.Printf("Time: %s\n\n", now.Format("15:04:05"))
				fmt.Printf("Queue: %s (%s)\n", queueName, queueservice.FormatState(stats))
				fmt.Printf("Size: %d (peak %d)\n", stats.Size, stats.PeakSize)
				fmt.Printf("Operations: %d pushed, %d popped\n", stats.Pushed, stats.Popped)
				fmt.Printf("Rate: %.2f push/s, %.2f pop/s\n", pushRate, popRate)

				if stats.BlockedPops > 0 {
					fmt.Printf("Blocked pops: %d\n", stats.BlockedPops)
				}
				if stats.LatePushes > 0 {
					fmt.Printf("Pushes after stop: %d\n", stats.LatePushes)
				}

				prevStats.Pushed = stats.Pushed
				prevStats.Popped = stats.Popped
				prevStats.Time = now

				if stats.Drained() {
					fmt.Println("\nQueue is stopped and drained, monitoring finished.")
					return nil
				}

			case <-sigChan:
				fmt.Println("\nMonitoring stopped.")
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationP("interval", "i", time.Second, "Refresh interval")
}
