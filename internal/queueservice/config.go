package queueservice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fyerfyer/tsqueue/sink"
	"gopkg.in/yaml.v3"
)

// QueueConfig 声明一个启动时创建的队列
type QueueConfig struct {
	Name            string `yaml:"name"`
	InitialCapacity int    `yaml:"initial_capacity"`
}

// Options 转换为创建队列使用的选项
func (c QueueConfig) Options() QueueOptions {
	return QueueOptions{InitialCapacity: c.InitialCapacity}
}

// MetricsConfig 定义指标服务的监听地址
type MetricsConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// Config 是 qcli 的配置文件结构
type Config struct {
	Queues  []QueueConfig     `yaml:"queues"`
	Redis   *sink.RedisConfig `yaml:"redis"`
	Metrics MetricsConfig     `yaml:"metrics"`
}

// DefaultConfig 返回默认配置，不预建任何队列
func DefaultConfig() *Config {
	return &Config{
		Redis: sink.DefaultRedisConfig(),
		Metrics: MetricsConfig{
			Addr: ":9090",
			Path: "/metrics",
		},
	}
}

// LoadConfig 从YAML文件加载配置
// path 为空或文件不存在时返回默认配置；文件存在但无法解析时返回错误。
// 文件中未出现的字段保持默认值。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate 检查队列声明是否合法
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Queues))
	for i, q := range c.Queues {
		if q.Name == "" {
			return fmt.Errorf("queues[%d]: name must not be empty", i)
		}
		if q.InitialCapacity < 0 {
			return fmt.Errorf("queue %q: initial_capacity must not be negative", q.Name)
		}
		if _, dup := seen[q.Name]; dup {
			return fmt.Errorf("queue %q: %w", q.Name, ErrQueueExists)
		}
		seen[q.Name] = struct{}{}
	}

	if c.Redis == nil {
		c.Redis = sink.DefaultRedisConfig()
	}
	return nil
}
