package resolveentity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"copper-intel-workers/internal/common/config"
	"copper-intel-workers/internal/common/errors"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/common/observability"
	"copper-intel-workers/internal/common/validation"
	"copper-intel-workers/internal/models"
	"copper-intel-workers/internal/resolver"
)

const TaskType = "crm-resolve-entity"

// Ranker runs fan-out and the ambiguity policy.
type Ranker interface {
	Rank(ctx context.Context, analysis models.QueryAnalysis) *resolver.Outcome
}

type Handler struct {
	config       *Config
	ranker       Ranker
	validator    *validation.Validator
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Ranker        Ranker
	Validator     *validation.Validator
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Ranker == nil {
		return nil, fmt.Errorf("%s requires a ranker", TaskType)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		ranker:       opts.Ranker,
		validator:    opts.Validator,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var output *Output
	input, err := h.parseInput(job)
	if err == nil {
		output, err = h.Execute(ctx, input)
	}
	if err != nil {
		code := string(errors.ErrCodeInternalError)
		if stdErr, ok := errors.AsStandardError(err); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse job variables: %v", err))
	}
	if result := h.validator.ValidateInput(TaskType, variables); !result.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}
	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("decode input: %v", err))
	}
	return &input, nil
}

// Execute ranks the query. A query for which every planned collection failed to load
// is reported as an upstream failure rather than as no match.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidInputError("query must not be empty")
	}
	hint := models.ParseEntityType(input.EntityType)

	outcome := h.ranker.Rank(ctx, models.QueryAnalysis{
		Intent:     "all",
		EntityType: hint,
		EntityName: query,
		Filters:    input.Filters,
	})

	plan := resolver.PlanFor(hint)
	if len(plan) > 0 && len(outcome.Failed) == len(plan) {
		return nil, errors.NewUpstreamUnavailableError(joinCollections(outcome.Failed),
			fmt.Errorf("all %d planned collections failed to load", len(plan)))
	}

	output := &Output{
		Outcome:           string(outcome.Kind),
		Candidates:        []Candidate{},
		Ambiguous:         outcome.Kind == models.OutcomeAmbiguous,
		RecordsSearched:   outcome.Searched,
		FailedCollections: collectionNames(outcome.Failed),
	}
	switch outcome.Kind {
	case models.OutcomeResolved:
		output.Candidates = append(output.Candidates, toCandidate(*outcome.Entity))
	case models.OutcomeAmbiguous:
		for _, c := range outcome.Candidates {
			output.Candidates = append(output.Candidates, toCandidate(c))
		}
	}

	h.logger.Info("entity resolved", map[string]interface{}{
		"query":      query,
		"hint":       string(hint),
		"outcome":    output.Outcome,
		"candidates": len(output.Candidates),
	})
	return output, nil
}

func toCandidate(c models.MatchCandidate) Candidate {
	return Candidate{
		ID:         c.Record.ID(),
		Name:       c.Record.Name(),
		Collection: c.Source.String(),
		Score:      c.Score,
	}
}

func collectionNames(cs []models.Collection) []string {
	if len(cs) == 0 {
		return nil
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func joinCollections(cs []models.Collection) string {
	return strings.Join(collectionNames(cs), ",")
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.GetKey(),
		"outcome": output.Outcome,
	})
}
