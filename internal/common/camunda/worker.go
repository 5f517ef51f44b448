package camunda

import (
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"copper-intel-workers/internal/common/config"
	"copper-intel-workers/internal/common/logger"
)

// JobHandler is implemented by every task handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// WorkerSet tracks the open job workers so they can be closed together.
type WorkerSet struct {
	client  zbc.Client
	name    string
	logger  logger.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerSet(client zbc.Client, name string, log logger.Logger) *WorkerSet {
	return &WorkerSet{
		client:  client,
		name:    name,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType. Disabled workers are skipped and report false.
func (s *WorkerSet) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		s.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.workers[taskType]; exists {
		s.logger.Warn("worker already started", map[string]interface{}{"taskType": taskType})
		return false
	}

	step := s.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		Name(s.name)
	if wcfg.MaxJobsActive > 0 {
		step = step.MaxJobsActive(wcfg.MaxJobsActive).Concurrency(wcfg.MaxJobsActive)
	}
	if wcfg.Timeout > 0 {
		step = step.Timeout(config.GetDuration(wcfg.Timeout))
	}
	s.workers[taskType] = step.Open()

	s.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return true
}

// TaskTypes lists the task types with an open worker.
func (s *WorkerSet) TaskTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.workers))
	for t := range s.workers {
		out = append(out, t)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs to finish.
func (s *WorkerSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for taskType, w := range s.workers {
		s.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		w.Close()
		w.AwaitClose()
	}
	s.workers = make(map[string]worker.JobWorker)
}
