package gatherintelligence

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"copper-intel-workers/internal/common/config"
	"copper-intel-workers/internal/common/copper"
	"copper-intel-workers/internal/common/errors"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/common/observability"
	"copper-intel-workers/internal/common/validation"
	"copper-intel-workers/internal/models"
	"copper-intel-workers/internal/reply"
)

const TaskType = "crm-gather-intelligence"

// RecordLoader fetches one CRM record by id.
type RecordLoader interface {
	Get(ctx context.Context, collection models.Collection, id string) (models.Record, error)
}

// Gatherer collects related data for a chosen record.
type Gatherer interface {
	Gather(ctx context.Context, candidate models.MatchCandidate, include []models.Relation) models.RelatedData
}

type Handler struct {
	config       *Config
	loader       RecordLoader
	gatherer     Gatherer
	validator    *validation.Validator
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Loader        RecordLoader
	Gatherer      Gatherer
	Validator     *validation.Validator
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Loader == nil || opts.Gatherer == nil {
		return nil, fmt.Errorf("%s requires a record loader and a gatherer", TaskType)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		loader:       opts.Loader,
		gatherer:     opts.Gatherer,
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

// Execute loads the record and gathers the requested relations. An empty include list
// gathers the default relations.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	collection, err := models.ParseCollection(input.Collection)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	id := strings.TrimSpace(input.EntityID)
	if id == "" {
		return nil, errors.NewInvalidInputError("entityId must not be empty")
	}

	include := models.ParseInclude(input.Include)
	if len(include) == 0 {
		include = append([]models.Relation(nil), models.DefaultInclude...)
	}

	record, err := h.loader.Get(ctx, collection, id)
	if err != nil {
		return nil, classify(collection, id, err)
	}

	entity := models.MatchCandidate{Record: record, Source: collection, Score: 100}
	related := h.gatherer.Gather(ctx, entity, include)

	out := &Output{
		Entity:     record,
		EntityName: record.Name(),
		Collection: collection.String(),
		Related:    make(map[string][]models.Record, len(include)),
		Counts:     make(map[string]int, len(include)),
		Summary:    reply.Intelligence(entity, include, related),
	}
	for _, rel := range include {
		records := related[rel]
		if records == nil {
			records = []models.Record{}
		}
		out.Related[string(rel)] = records
		out.Counts[string(rel)] = len(records)
	}

	h.logger.Info("intelligence gathered", map[string]interface{}{
		"collection": collection.String(),
		"entityId":   id,
		"counts":     out.Counts,
	})
	return out, nil
}

func classify(collection models.Collection, id string, err error) error {
	op := fmt.Sprintf("get %s/%s", collection, id)
	switch {
	case stderrors.Is(err, copper.ErrNotFound):
		return errors.NewResourceNotFoundError("copper", op)
	case stderrors.Is(err, copper.ErrRateLimited):
		return errors.NewCRMRateLimitedError(op)
	default:
		return errors.NewCRMRequestFailedError(op, err)
	}
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
		"jobKey":     job.GetKey(),
		"collection": output.Collection,
	})
}
