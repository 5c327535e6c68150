package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/fyerfyer/tsqueue/queue"
	"github.com/fyerfyer/tsqueue/sink"
	"github.com/spf13/cobra"
)

// exportCmd 表示export命令，将队列导出为JSON或写入Redis
var exportCmd = &cobra.Command{
	Use:   "export [queue-name]",
	Short: "Export a queue as JSON or drain it into Redis",
	Long: `Export a queue.

With --format json (default) the queue is stopped, its remaining items are
removed and written as a JSON document to --output or stdout. Use --snapshot
to write only metadata and statistics without touching the items.

With --format redis the queue is stopped and drained into a Redis list using
RPUSH. The connection settings come from the "redis" section of the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queueName := args[0]

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		snapshot, _ := cmd.Flags().GetBool("snapshot")

		service := GetQueueService()

		switch format {
		case "json":
			return exportJSON(service, queueName, output, snapshot)
		case "redis":
			key, _ := cmd.Flags().GetString("key")
			batchSize, _ := cmd.Flags().GetInt("batch-size")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if key == "" {
				key = queueName
			}
			return exportRedis(cmd.Context(), service, queueName, key, batchSize, timeout)
		default:
			return fmt.Errorf("invalid format: %s, must be 'json' or 'redis'", format)
		}
	},
}

// importCmd 表示import命令，从JSON文件恢复队列
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Create a queue from an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		data, err := queueservice.DeserializeQueueData(raw)
		if err != nil {
			return err
		}

		if name, _ := cmd.Flags().GetString("name"); name != "" {
			data.Name = name
		}

		if err := GetQueueService().ImportQueue(data); err != nil {
			return fmt.Errorf("failed to import queue: %w", err)
		}

		fmt.Printf("Queue '%s' imported with %d item(s)\n", data.Name, len(data.Items))
		return nil
	},
}

// exportJSON 导出队列为JSON
func exportJSON(service queueservice.Service, queueName, output string, snapshot bool) error {
	var (
		data queueservice.QueueData
		err  error
	)
	if snapshot {
		data, err = service.Snapshot(queueName)
	} else {
		data, err = service.ExportQueue(queueName)
	}
	if err != nil {
		return fmt.Errorf("failed to export queue: %w", err)
	}

	raw, err := queueservice.SerializeQueueData(data)
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}

	if output == "" {
		fmt.Println(string(raw))
		return nil
	}

	if err := os.WriteFile(output, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("Exported queue '%s' (%d item(s)) to %s\n", queueName, len(data.Items), output)
	return nil
}

// exportRedis 停止队列并把剩余元素写入Redis列表
func exportRedis(ctx context.Context, service queueservice.Service, queueName, key string,
	batchSize int, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	q, err := service.GetQueue(queueName)
	if err != nil {
		return fmt.Errorf("failed to export queue: %w", err)
	}

	client, err := sink.NewRedisClient(ctx, GetConfig().Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	list := sink.NewRedisList(client, key,
		sink.WithBatchSize(batchSize), sink.WithPushTimeout(timeout))

	n, requeued, err := drainToList(ctx, q, list)
	if err != nil {
		if requeued > 0 {
			fmt.Printf("%d item(s) were not written and remain in queue '%s'\n", requeued, queueName)
		}
		return fmt.Errorf("drained %d item(s) before failing: %w", n, err)
	}

	fmt.Printf("Drained %d item(s) from queue '%s' into Redis list '%s' (%d batch(es))\n",
		n, queueName, list.Key(), list.Batches())
	return nil
}

// drainToList 停止队列并把元素写入 Redis 列表
// 某一批写入失败时，该批元素和队列中剩余的元素按原顺序放回队列，返回放回的数量
func drainToList(ctx context.Context, q *queue.ConcurrentQueue[string], list *sink.RedisList) (int, int, error) {
	// 先停止，Drain 在取空后返回
	q.Stop()

	n, err := list.Drain(ctx, q)
	if err == nil {
		return n, 0, nil
	}

	var pushErr *sink.PushError
	if !errors.As(err, &pushErr) {
		return n, 0, err
	}

	rest := q.Drain()
	for _, item := range pushErr.Items {
		q.Push(item)
	}
	for _, item := range rest {
		q.Push(item)
	}

	return n, len(pushErr.Items) + len(rest), err
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringP("format", "F", "json", "Export format: 'json' or 'redis'")
	exportCmd.Flags().StringP("output", "o", "", "Output file for JSON export (default stdout)")
	exportCmd.Flags().Bool("snapshot", false, "Only export metadata and statistics, keep the items")
	exportCmd.Flags().StringP("key", "k", "", "Redis list key (default queue name)")
	exportCmd.Flags().Int("batch-size", 100, "Maximum items per RPUSH")
	exportCmd.Flags().Duration("timeout", 3*time.Second, "Timeout for each RPUSH")

	importCmd.Flags().StringP("name", "n", "", "Override the queue name stored in the file")
}
