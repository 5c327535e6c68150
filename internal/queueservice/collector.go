package queueservice

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "tsqueue"

// Collector 把服务中所有队列的统计导出为 Prometheus 指标
// 每次采集时读取队列的统计快照，不在队列操作路径上做任何记录
type Collector struct {
	service Service

	size        *prometheus.Desc
	peakSize    *prometheus.Desc
	pushed      *prometheus.Desc
	popped      *prometheus.Desc
	blockedPops *prometheus.Desc
	latePushes  *prometheus.Desc
	stopped     *prometheus.Desc
}

// NewCollector 创建一个采集指定服务的 Collector
func NewCollector(service Service) *Collector {
	labels := []string{"queue"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "queue", name), help, labels, nil)
	}

	return &Collector{
		service:     service,
		size:        desc("size", "Number of items currently in the queue."),
		peakSize:    desc("peak_size", "Largest number of items the queue has held."),
		pushed:      desc("pushed_total", "Items pushed into the queue."),
		popped:      desc("popped_total", "Items popped from the queue."),
		blockedPops: desc("blocked_pops_total", "Pops that had to wait for an item."),
		latePushes:  desc("late_pushes_total", "Items pushed after the queue was stopped."),
		stopped:     desc("stopped", "1 if the queue has been stopped."),
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.peakSize
	ch <- c.pushed
	ch <- c.popped
	ch <- c.blockedPops
	ch <- c.latePushes
	ch <- c.stopped
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, info := range c.service.ListQueues() {
		s := info.Stats

		stopped := 0.0
		if s.Stopped {
			stopped = 1
		}

		ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size), info.Name)
		ch <- prometheus.MustNewConstMetric(c.peakSize, prometheus.GaugeValue, float64(s.PeakSize), info.Name)
		ch <- prometheus.MustNewConstMetric(c.pushed, prometheus.CounterValue, float64(s.Pushed), info.Name)
		ch <- prometheus.MustNewConstMetric(c.popped, prometheus.CounterValue, float64(s.Popped), info.Name)
		ch <- prometheus.MustNewConstMetric(c.blockedPops, prometheus.CounterValue, float64(s.BlockedPops), info.Name)
		ch <- prometheus.MustNewConstMetric(c.latePushes, prometheus.CounterValue, float64(s.LatePushes), info.Name)
		ch <- prometheus.MustNewConstMetric(c.stopped, prometheus.GaugeValue, stopped, info.Name)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
