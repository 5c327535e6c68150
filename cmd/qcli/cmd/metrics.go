package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	metricsServer   *http.Server
	metricsServerMu sync.Mutex
)

// metricsCmd 表示metrics命令，在后台提供 Prometheus 指标
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve queue metrics for Prometheus",
	Long: `Start an HTTP server exposing per-queue metrics in the Prometheus format.
The server runs in the background until qcli exits or 'metrics --stop' is run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if stop, _ := cmd.Flags().GetBool("stop"); stop {
			if !stopMetricsServer() {
				fmt.Println("Metrics server is not running.")
			}
			return nil
		}

		cfg := GetConfig().Metrics

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Addr
		}
		path := cfg.Path
		if path == "" {
			path = "/metrics"
		}

		if err := startMetricsServer(GetQueueService(), addr, path); err != nil {
			return err
		}

		// 单独运行时阻塞直到收到中断信号
		if !interactiveMode {
			waitForInterrupt()
			stopMetricsServer()
		}
		return nil
	},
}

// startMetricsServer 启动后台指标服务
func startMetricsServer(service queueservice.Service, addr, path string) error {
	metricsServerMu.Lock()
	defer metricsServerMu.Unlock()

	if metricsServer != nil {
		return fmt.Errorf("metrics server already listening on %s", metricsServer.Addr)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		queueservice.NewCollector(service),
	)

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server on %s failed: %v", addr, err)
		}
	}()

	metricsServer = srv
	fmt.Printf("Serving metrics on http://%s%s\n", addr, path)
	return nil
}

// waitForInterrupt 阻塞直到收到 SIGINT 或 SIGTERM
func waitForInterrupt() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	<-sigChan
}

// stopMetricsServer 关闭指标服务，未运行时返回false
func stopMetricsServer() bool {
	metricsServerMu.Lock()
	defer metricsServerMu.Unlock()

	if metricsServer == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Printf("metrics server shutdown: %v", err)
	}
	metricsServer = nil
	return true
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringP("addr", "a", "", "Listen address (default from config)")
	metricsCmd.Flags().Bool("stop", false, "Stop the running metrics server")
}
