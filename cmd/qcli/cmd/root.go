package cmd

import (
	"fmt"
	"os"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/spf13/cobra"
)

var (
	// 队列服务实例，所有命令共享
	queueSvc queueservice.Service

	// 加载后的配置
	appConfig *queueservice.Config

	// 配置文件路径
	cfgFile string
)

// rootCmd 表示CLI工具的根命令
var rootCmd = &cobra.Command{
	Use:   "qcli",
	Short: "A CLI tool for managing concurrent queues",
	Long: `Queue CLI (qcli) is a command line interface for creating and managing
unbounded blocking FIFO queues. Items can be pushed and popped, queues can be
stopped so that consumers drain the remaining items and exit, and statistics
can be monitored, exported as JSON or Prometheus metrics, or drained into Redis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initService()
	},
}

// Execute 运行根命令并处理任何错误
func Execute() {
	err := rootCmd.Execute()

	// 在程序结束时关闭指标服务和队列服务
	stopMetricsServer()
	if queueSvc != nil {
		_ = queueSvc.Close()
	}

	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// 没有子命令时进入交互模式
	// 在 init 中赋值，避免 rootCmd 的初始化循环
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		runInteractiveMode()
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
}

// initService 加载配置并创建队列服务，只在第一次调用时生效
func initService() error {
	if queueSvc != nil {
		return nil
	}

	cfg, err := queueservice.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	svc, err := queueservice.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	appConfig = cfg
	queueSvc = svc

	if n := len(cfg.Queues); n > 0 {
		fmt.Printf("Loaded %d queue(s) from %s\n", n, cfgFile)
	}
	return nil
}

// GetQueueService 返回队列服务实例，供子命令使用
func GetQueueService() queueservice.Service {
	return queueSvc
}

// GetConfig 返回当前配置
func GetConfig() *queueservice.Config {
	if appConfig == nil {
		return queueservice.DefaultConfig()
	}
	return appConfig
}
