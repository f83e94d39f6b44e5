package rankproducts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/common/observability"
	"product-discovery/internal/common/validation"
	"product-discovery/internal/discovery/ranking"
	"product-discovery/internal/models"
)

const (
	TaskType = "rank-products"
)

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["candidates"],
  "properties": {
    "intent": {"type": ["object", "null"]},
    "candidates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "price": {"type": ["number", "null"], "minimum": 0},
          "currency": {"type": "string"},
          "tags": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    }
  }
}`)

// Ranker is satisfied by the turn engine.
type Ranker interface {
	RankCandidates(ctx context.Context, intent models.IntentState, candidates []models.Candidate) (ranking.Result, error)
}

type Handler struct {
	config     *Config
	ranker     Ranker
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

// NewHandler builds the handler. obs may be nil.
func NewHandler(config *Config, ranker Ranker, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:     config,
		ranker:     ranker,
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
		h.fail(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func decodeInput(raw []byte) (*Input, error) {
	result, err := inputSchema.ValidateJSON(raw)
	if err != nil {
		return nil, apperrors.NewInvalidTurnInputError(fmt.Sprintf("parse input: %v", err))
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidTurnInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperrors.NewInvalidTurnInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if h.config.MaxCandidates > 0 && len(input.Candidates) > h.config.MaxCandidates {
		return nil, apperrors.NewInvalidTurnInputError(
			fmt.Sprintf("%d candidates exceeds the limit of %d", len(input.Candidates), h.config.MaxCandidates))
	}

	result, err := h.ranker.RankCandidates(ctx, input.Intent, input.Candidates)
	if errors.Is(err, ranking.ErrNoCandidates) {
		return nil, apperrors.NewNoResultsError(input.Intent.Purpose)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("ranking abandoned: %w", ctx.Err()))
		}
		return nil, apperrors.NewInternalError(err)
	}

	h.logger.Info("candidates ranked", map[string]interface{}{
		"submitted":       len(input.Candidates),
		"recommendations": len(result.Recommendations),
		"confidence":      result.Confidence,
	})

	return &Output{
		Recommendations: result.Recommendations,
		Confidence:      result.Confidence,
	}, nil
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
		"jobKey":          job.Key,
		"recommendations": len(output.Recommendations),
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	h.recordFailure(ctx, err, start)
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) recordFailure(ctx context.Context, err error, start time.Time) {
	code := apperrors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "failed")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
