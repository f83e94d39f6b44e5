package processturn

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/common/observability"
	"product-discovery/internal/common/validation"
	"product-discovery/internal/discovery/respond"
	"product-discovery/internal/models"
)

const (
	TaskType = "process-discovery-turn"
)

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["utterance"],
  "properties": {
    "utterance": {"type": "string"},
    "history": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["role", "text"],
        "properties": {
          "role": {"enum": ["user", "assistant"]},
          "text": {"type": "string"},
          "mode": {"type": "string"},
          "question_topic": {"type": "string"},
          "product_count": {"type": "integer", "minimum": 0}
        }
      }
    },
    "state": {"type": ["object", "null"]}
  }
}`)

// TurnProcessor is the discovery core as seen by the worker.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, utterance string, history []models.TurnRecord, state models.IntentState) models.Response
}

type Handler struct {
	config     *Config
	engine     TurnProcessor
	notifier   Notifier
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

// NewHandler builds the handler. notifier may be nil.
func NewHandler(config *Config, engine TurnProcessor, notifier Notifier, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:     config,
		engine:     engine,
		notifier:   notifier,
		errHandler: apperrors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := decodeInput([]byte(job.Variables))
	if err != nil {
		h.recordFailure(ctx, err, start)
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.execute(ctx, input, job.Key)
	h.completeJob(ctx, client, job, output, start)
}

func decodeInput(raw []byte) (*Input, error) {
	result, err := inputSchema.ValidateJSON(raw)
	if err != nil {
		return nil, apperrors.NewInvalidTurnInputError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidTurnInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperrors.NewInvalidTurnInputError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input, jobKey int64) *Output {
	resp := h.engine.ProcessTurn(ctx, input.Utterance, input.History, input.State)

	if h.notifier != nil && isNoResults(resp) {
		h.notify(ctx, NoResultsEvent{
			TurnID:     resp.TurnID,
			JobKey:     jobKey,
			Utterance:  input.Utterance,
			Purpose:    resp.Intent.Purpose,
			Category:   resp.Intent.Category,
			Budget:     resp.Intent.Budget,
			OccurredAt: time.Now().UTC(),
		})
	}

	return &Output{Response: resp}
}

// notify never affects the turn's outcome.
func (h *Handler) notify(ctx context.Context, event NoResultsEvent) {
	ctx, cancel := context.WithTimeout(ctx, h.config.NotifyTimeout)
	defer cancel()

	if err := h.notifier.NotifyNoResults(ctx, event); err != nil {
		h.logger.Warn("no-results notification failed", map[string]interface{}{
			"turnId": event.TurnID,
			"error":  err.Error(),
		})
	}
}

func isNoResults(resp models.Response) bool {
	if resp.Mode != models.ModeFail {
		return false
	}
	for _, e := range resp.Errors {
		if e == respond.ErrNoResults {
			return true
		}
	}
	return false
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.recordFailure(ctx, apperrors.NewInternalError(err), start)
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "completed")

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"mode":   output.Response.Mode,
		"turnId": output.Response.TurnID,
	})
}

func (h *Handler) recordFailure(ctx context.Context, err error, start time.Time) {
	code := apperrors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "failed")
}

// Execute runs one turn outside of zeebe.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input, 0)
}
