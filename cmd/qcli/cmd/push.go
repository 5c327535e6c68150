package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/spf13/cobra"
)

// maxLineSize 是从文件批量入队时单行的最大长度
const maxLineSize = 1 << 20

// pushCmd 表示push命令，用于向队列添加项目
var pushCmd = &cobra.Command{
	Use:   "push [queue-name] [item...]",
	Short: "Add items to a queue",
	Long: `Add one or more items to a specified queue.
Items can be given as arguments, with --item, as a comma separated --items list,
or read from a file (one per line, up to 1 MiB per line).
Pushing to a stopped queue is accepted and reported as a late push.`,
	Aliases: []string{"enqueue"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		item, _ := cmd.Flags().GetString("item")
		itemList, _ := cmd.Flags().GetString("items")
		filePath, _ := cmd.Flags().GetString("file")

		// 按参数、--item、--items 的顺序入队
		items := append([]string(nil), args[1:]...)
		if item != "" {
			items = append(items, item)
		}
		items = append(items, queueservice.ParseItems(itemList)...)

		if len(items) > 0 && filePath != "" {
			return fmt.Errorf("cannot combine items with the --file flag")
		}
		if len(items) == 0 && filePath == "" {
			return fmt.Errorf("must specify items, --item, --items or --file")
		}

		service := GetQueueService()

		if filePath != "" {
			return pushFromFile(service, queueName, filePath)
		}

		for _, it := range items {
			if err := service.PushItem(queueName, it); err != nil {
				return fmt.Errorf("failed to push item: %w", err)
			}
		}

		fmt.Printf("Successfully pushed %d item(s) to queue '%s'\n", len(items), queueName)
		warnIfStopped(service, queueName)
		return nil
	},
}

// pushFromFile 从文件中读取项目并入队
func pushFromFile(service queueservice.Service, queueName, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// 默认的64KiB行长限制对队列元素太小
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var pushed int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue // 跳过空行
		}

		if err := service.PushItem(queueName, line); err != nil {
			return fmt.Errorf("failed after %d item(s): %w", pushed, err)
		}
		pushed++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	fmt.Printf("Bulk push to queue '%s' completed: %d items pushed\n", queueName, pushed)
	warnIfStopped(service, queueName)
	return nil
}

// warnIfStopped 提示用户元素被推入了已停止的队列
func warnIfStopped(service queueservice.Service, queueName string) {
	stats, err := service.QueueStats(queueName)
	if err == nil && stats.Stopped {
		fmt.Printf("Warning: queue '%s' is stopped, %d push(es) after stop so far\n",
			queueName, stats.LatePushes)
	}
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringP("item", "i", "", "Item to push")
	pushCmd.Flags().String("items", "", "Comma separated items to push")
	pushCmd.Flags().StringP("file", "f", "", "File containing items to push (one per line)")
}
