package monitor

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportforge",
			Subsystem: "asynq",
			Name:      "tasks_processed_total",
			Help:      "Total number of processed event tasks.",
		},
		[]string{"task_type"},
	)

	taskFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportforge",
			Subsystem: "asynq",
			Name:      "tasks_failed_total",
			Help:      "Total number of failed event tasks.",
		},
		[]string{"task_type"},
	)

	taskInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "reportforge",
			Subsystem: "asynq",
			Name:      "tasks_in_progress",
			Help:      "Number of event tasks currently being processed.",
		},
		[]string{"task_type"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reportforge",
			Subsystem: "asynq",
			Name:      "task_duration_seconds",
			Help:      "Event task processing time distribution in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"task_type"},
	)
)

// AsynqMiddleware records task metrics in Prometheus and mirrors every task
// execution as an operation span in the monitoring engine.
func AsynqMiddleware(m *Monitor) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			taskInProgress.WithLabelValues(taskType).Inc()
			defer taskInProgress.WithLabelValues(taskType).Dec()

			opID := m.StartOperation(taskType, SpanMetadata{})
			start := time.Now()

			err := next.ProcessTask(ctx, task)

			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			if err != nil {
				taskFailedTotal.WithLabelValues(taskType).Inc()
				m.EndOperation(opID, false, err.Error(), nil)
			} else {
				m.EndOperation(opID, true, "", nil)
			}

			taskProcessedTotal.WithLabelValues(taskType).Inc()

			return err
		})
	}
}
