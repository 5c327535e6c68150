package queueservice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fyerfyer/tsqueue/queue"
)

// QueueData 表示队列的可序列化数据结构
type QueueData struct {
	Name       string       `json:"name"`
	Options    QueueOptions `json:"options"`
	CreatedAt  time.Time    `json:"createdAt"`
	ExportedAt time.Time    `json:"exportedAt"`
	Stopped    bool         `json:"stopped"`
	Size       int          `json:"size"`
	Pushed     uint64       `json:"pushed"`
	Popped     uint64       `json:"popped"`
	Items      []string     `json:"items,omitempty"`
}

func newQueueData(name string, opts QueueOptions, stats queue.Stats, items []string) QueueData {
	return QueueData{
		Name:       name,
		Options:    opts,
		CreatedAt:  stats.CreatedAt,
		ExportedAt: time.Now(),
		Stopped:    stats.Stopped,
		Size:       stats.Size,
		Pushed:     stats.Pushed,
		Popped:     stats.Popped,
		Items:      items,
	}
}

// FormatQueueInfo 返回队列信息的格式化字符串表示
func FormatQueueInfo(info QueueInfo) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Queue: %s\n", info.Name))
	sb.WriteString(fmt.Sprintf("State: %s\n", FormatState(info.Stats)))
	sb.WriteString(fmt.Sprintf("Size: %d\n", info.Stats.Size))
	sb.WriteString(fmt.Sprintf("Created: %s\n", formatTimeAgo(info.Stats.CreatedAt)))
	sb.WriteString(fmt.Sprintf("Operations: %d pushed, %d popped\n",
		info.Stats.Pushed, info.Stats.Popped))

	return sb.String()
}

// FormatQueueStats 返回队列统计信息的格式化字符串表示
func FormatQueueStats(stats queue.Stats) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("State: %s\n", FormatState(stats)))
	sb.WriteString(fmt.Sprintf("Size: %d (peak %d)\n", stats.Size, stats.PeakSize))
	sb.WriteString(fmt.Sprintf("Created: %s\n", formatTimeAgo(stats.CreatedAt)))
	sb.WriteString(fmt.Sprintf("Operations: %d pushed, %d popped\n",
		stats.Pushed, stats.Popped))

	if stats.BlockedPops > 0 {
		sb.WriteString(fmt.Sprintf("Blocked pops: %d\n", stats.BlockedPops))
	}

	if stats.LatePushes > 0 {
		sb.WriteString(fmt.Sprintf("Pushes after stop: %d\n", stats.LatePushes))
	}

	return sb.String()
}

// FormatState 返回队列运行状态的简短描述
func FormatState(stats queue.Stats) string {
	switch {
	case stats.Drained():
		return "drained"
	case stats.Stopped:
		return "stopping"
	default:
		return "running"
	}
}

// SerializeQueueData 将队列数据序列化为JSON
func SerializeQueueData(data QueueData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

// DeserializeQueueData 从JSON反序列化队列数据
func DeserializeQueueData(data []byte) (QueueData, error) {
	var queueData QueueData
	if err := json.Unmarshal(data, &queueData); err != nil {
		return QueueData{}, fmt.Errorf("decode queue data: %w", err)
	}
	if queueData.Name == "" {
		return QueueData{}, fmt.Errorf("decode queue data: missing queue name")
	}
	return queueData, nil
}

// formatTimeAgo 将时间格式化为人类可读的"多久之前"字符串
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	seconds := int(duration.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%d seconds ago", seconds)
	}

	minutes := int(duration.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}

	hours := int(duration.Hours())
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := int(duration.Hours() / 24)
	return fmt.Sprintf("%d days ago", days)
}

// ParseItems 解析以逗号分隔的项目字符串
func ParseItems(itemsStr string) []string {
	if itemsStr == "" {
		return nil
	}
	return strings.Split(itemsStr, ",")
}

// FormatItems 将项目切片格式化为以逗号分隔的字符串
func FormatItems(items []string) string {
	return strings.Join(items, ",")
}
