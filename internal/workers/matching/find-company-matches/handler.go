// internal/workers/matching/find-company-matches/handler.go
package findcompanymatches

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"company-matching/internal/common/camunda"
	"company-matching/internal/common/config"
	"company-matching/internal/common/errors"
	"company-matching/internal/common/logger"
	"company-matching/internal/common/metrics"
	"company-matching/internal/common/observability"
	"company-matching/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "find-company-matches"

// Matcher is satisfied by *matching.Engine.
type Matcher interface {
	FindMatches(ctx context.Context, req matching.MatchRequest) (*matching.MatchResponse, error)
}

type Handler struct {
	config       *Config
	engine       Matcher
	camunda      *camunda.Client
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	jobWorker    worker.JobWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Engine        Matcher
	Camunda       *camunda.Client
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%s: matching engine is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json", "stdout")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		engine:       opts.Engine,
		camunda:      opts.Camunda,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.process(ctx, job)
	if err != nil {
		stdErr := toStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.recordJob(ctx, start, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		h.recordJob(ctx, start, "complete_failed")
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.recordJob(ctx, start, "completed")
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// Execute runs one matching pass for the job input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := input.toRequest()
	resp, err := h.engine.FindMatches(ctx, req)

	layout := string(req.Layout)
	if layout == "" {
		layout = string(matching.LayoutDetailed)
	}

	if err != nil {
		stdErr := toStandardError(err)
		if stdErr.Code == errors.ErrCodeCompanyNotFound {
			stdErr = errors.NewCompanyNotFoundError(input.RequesterCompanyID)
		}
		if h.obs != nil {
			h.obs.RecordMatchingRun(ctx, layout, string(stdErr.Code), 0)
		}
		return nil, stdErr
	}

	if h.obs != nil {
		h.obs.RecordMatchingRun(ctx, layout, "success", resp.Metadata.Returned)
	}
	return &Output{Matches: resp.Matches, Metadata: resp.Metadata}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewMatchRequestInvalidError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	result, err := inputSchema.ValidateVariables(variables)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewMatchRequestInvalidError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewMatchRequestInvalidError(err.Error())
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	send := func(ctx context.Context) error {
		request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output.variables())
		if err != nil {
			return err
		}
		_, err = request.Send(ctx)
		return err
	}

	var err error
	if h.camunda != nil {
		err = h.camunda.ExecuteWithRetry(ctx, "complete job", send)
	} else {
		err = send(ctx)
	}
	if err != nil {
		return err
	}

	h.logger.Info("Job completed", map[string]interface{}{
		"jobKey":   job.GetKey(),
		"runId":    output.Metadata.RunID,
		"returned": output.Metadata.Returned,
	})
	return nil
}

func (h *Handler) recordJob(ctx context.Context, start time.Time, status string) {
	if h.obs == nil {
		return
	}
	h.obs.RecordJobProcessed(ctx, status)
	h.obs.RecordJobDuration(ctx, time.Since(start), status)
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client is required to register", TaskType)
	}

	h.jobWorker = camunda.OpenWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h.Handle, h.logger)
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", nil)
		h.jobWorker.Close()
		h.jobWorker.AwaitClose()
		h.jobWorker = nil
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

// toStandardError maps engine and infrastructure failures to error codes
// the process model understands.
func toStandardError(err error) *errors.StandardError {
	var stdErr *errors.StandardError
	switch {
	case stderrors.As(err, &stdErr):
		return stdErr
	case stderrors.Is(err, matching.ErrInvalidRequest):
		return errors.NewMatchRequestInvalidError(err.Error())
	case stderrors.Is(err, matching.ErrCompanyNotFound):
		return errors.NewCompanyNotFoundError("")
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewQueryTimeoutError(TaskType)
	case stderrors.Is(err, matching.ErrMatchingFailed):
		return errors.NewMatchingFailedError(err)
	default:
		return errors.NewInternalError(err)
	}
}
