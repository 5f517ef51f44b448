package handlemessage

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
	"copper-intel-workers/internal/common/errors"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/common/observability"
	"copper-intel-workers/internal/common/validation"
	"copper-intel-workers/internal/confirmation"
	"copper-intel-workers/internal/models"
	"copper-intel-workers/internal/reply"
	"copper-intel-workers/internal/resolver"
)

const TaskType = "crm-handle-message"

var helpWords = map[string]bool{
	"help":     true,
	"?":        true,
	"commands": true,
}

// Analyzer turns free text into a structured query.
type Analyzer interface {
	Analyze(ctx context.Context, text string) models.QueryAnalysis
}

// EntityResolver ranks candidates and gathers related data for a chosen one.
type EntityResolver interface {
	Resolve(ctx context.Context, analysis models.QueryAnalysis) *resolver.Outcome
	Gather(ctx context.Context, candidate models.MatchCandidate, include []models.Relation) models.RelatedData
}

// Confirmations is the per-conversation disambiguation state.
type Confirmations interface {
	Begin(ctx context.Context, key models.ConfirmationKey, candidates []models.MatchCandidate, analysis models.QueryAnalysis) (*models.PendingConfirmation, error)
	Handle(ctx context.Context, key models.ConfirmationKey, text string) (*confirmation.Transition, error)
	Abort(ctx context.Context, key models.ConfirmationKey) error
}

type Handler struct {
	config        *Config
	analyzer      Analyzer
	resolver      EntityResolver
	confirmations Confirmations
	validator     *validation.Validator
	obs           *observability.Observability
	errorHandler  *errors.ErrorHandler
	logger        logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Analyzer      Analyzer
	Resolver      EntityResolver
	Confirmations Confirmations
	Validator     *validation.Validator
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Analyzer == nil || opts.Resolver == nil || opts.Confirmations == nil {
		return nil, fmt.Errorf("%s requires an analyzer, a resolver and a confirmation machine", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:        cfg,
		analyzer:      opts.Analyzer,
		resolver:      opts.Resolver,
		confirmations: opts.Confirmations,
		validator:     opts.Validator,
		obs:           opts.Observability,
		errorHandler:  errors.NewErrorHandler(log),
		logger:        log,
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

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
			return
		}
	}

	code := string(errors.ErrCodeInternalError)
	if stdErr, ok := errors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
	h.errorHandler.HandleJobError(ctx, client, job, err)
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

// Execute handles one message end to end. Failures after the input is accepted are
// reported in the reply and never returned as errors.
func (h *Handler) Execute(ctx context.Context, input *Input) (output *Output, err error) {
	if strings.TrimSpace(input.UserID) == "" || strings.TrimSpace(input.ChannelID) == "" {
		return nil, errors.NewInvalidInputError("userId and channelId are required")
	}
	key := models.ConfirmationKey{UserID: input.UserID, ChannelID: input.ChannelID}
	text := strings.TrimSpace(input.Text)

	defer func() {
		if r := recover(); r != nil {
			output = h.fail(ctx, key, errors.NewResolutionError(fmt.Errorf("panic: %v", r)))
			err = nil
		}
	}()

	tr, herr := h.confirmations.Handle(ctx, key, text)
	if herr != nil {
		if stderrors.Is(herr, confirmation.ErrContended) {
			return h.fail(ctx, key, errors.NewResolutionError(herr)), nil
		}
		return h.fail(ctx, key, errors.NewConfirmationStoreError("handle", herr)), nil
	}

	switch tr.Kind {
	case confirmation.TransitionCancelled:
		return &Output{Reply: reply.Cancelled(), Outcome: OutcomeCancelled, State: StateIdle}, nil

	case confirmation.TransitionOutOfRange, confirmation.TransitionInvalidFormat:
		return &Output{
			Reply:          reply.Reprompt(tr.Pending.Candidates),
			Outcome:        OutcomeInvalidSelection,
			State:          StateAwaitingSelection,
			CandidateCount: len(tr.Pending.Candidates),
		}, nil

	case confirmation.TransitionResolved:
		related := h.resolver.Gather(ctx, *tr.Selected, tr.Analysis.Include)
		return h.resolved(*tr.Selected, tr.Analysis.Include, related), nil
	}

	return h.fresh(ctx, key, text), nil
}

func (h *Handler) fresh(ctx context.Context, key models.ConfirmationKey, text string) *Output {
	if text == "" || helpWords[strings.ToLower(text)] {
		return &Output{Reply: reply.Help(), Outcome: OutcomeHelp, State: StateIdle}
	}

	analysis := h.analyzer.Analyze(ctx, text)
	outcome := h.resolver.Resolve(ctx, analysis)

	switch outcome.Kind {
	case models.OutcomeResolved:
		include := analysis.Include
		if len(include) == 0 {
			include = models.DefaultInclude
		}
		return h.resolved(*outcome.Entity, include, outcome.Related)

	case models.OutcomeAmbiguous:
		pending, err := h.confirmations.Begin(ctx, key, outcome.Candidates, analysis)
		if err != nil {
			return h.fail(ctx, key, errors.NewConfirmationStoreError("begin", err))
		}
		return &Output{
			Reply:          reply.Confirmation(analysis.EntityName, pending.Candidates),
			Outcome:        OutcomeAmbiguous,
			State:          StateAwaitingSelection,
			CandidateCount: len(pending.Candidates),
		}
	}

	h.logger.Info("no candidates above threshold", map[string]interface{}{
		"query":    analysis.EntityName,
		"hint":     string(analysis.EntityType),
		"searched": outcome.Searched,
		"failed":   len(outcome.Failed),
	})
	return &Output{Reply: reply.NoMatch(analysis), Outcome: OutcomeNoMatch, State: StateIdle}
}

func (h *Handler) resolved(entity models.MatchCandidate, include []models.Relation, related models.RelatedData) *Output {
	return &Output{
		Reply:            reply.Intelligence(entity, include, related),
		Outcome:          OutcomeResolved,
		State:            StateIdle,
		EntityID:         entity.Record.ID(),
		EntityName:       entity.Record.Name(),
		EntityCollection: entity.Source.String(),
		CandidateCount:   1,
	}
}

// fail clears any pending confirmation before producing the generic failure reply.
func (h *Handler) fail(ctx context.Context, key models.ConfirmationKey, cause *errors.StandardError) *Output {
	if err := h.confirmations.Abort(ctx, key); err != nil {
		h.logger.Warn("failed to clear confirmation after error", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
	}
	h.logger.Error("message handling failed", map[string]interface{}{
		"key":       key.String(),
		"errorCode": string(cause.Code),
		"details":   cause.Details,
	})
	return &Output{Reply: reply.Failure(), Outcome: OutcomeError, State: StateIdle}
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
		"state":   output.State,
	})
}
