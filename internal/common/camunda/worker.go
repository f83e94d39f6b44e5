package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"product-discovery/internal/common/config"
	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/metrics"
)

// JobHandler is the signature every discovery worker exposes.
type JobHandler func(client worker.JobClient, job entities.Job)

// Instrument tracks active jobs and duration per task type, and turns a
// panicking handler into a failed job instead of a dead worker goroutine.
func Instrument(taskType string, handler JobHandler, log logger.Logger) JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()

		defer func() {
			active.Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())

			if r := recover(); r != nil {
				metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.ErrCodeInternal)).Inc()
				log.Error("handler panicked", map[string]interface{}{
					"taskType": taskType,
					"jobKey":   job.Key,
					"panic":    fmt.Sprint(r),
				})
				if client != nil {
					_, _ = client.NewFailJobCommand().
						JobKey(job.Key).
						Retries(apperrors.RetriesToUse(3, job.Retries)).
						ErrorMessage(fmt.Sprintf("%s: %v", apperrors.ErrCodeInternal, r)).
						Send(context.Background())
				}
			}
		}()

		handler(client, job)
	}
}

// StartWorker opens a job worker for taskType. Disabled workers return nil.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler, log))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jobWorker
}
