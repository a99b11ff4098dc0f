package workers

import (
	"context"
	"time"

	"taskmarket_backend/internal/logger"
	"taskmarket_backend/internal/services"
)

// TaskWorker runs the background lifecycle sweeps that no request triggers.
type TaskWorker struct {
	taskService services.TaskService
	interval    time.Duration
}

func NewTaskWorker(taskService services.TaskService) *TaskWorker {
	return &TaskWorker{
		taskService: taskService,
		interval:    1 * time.Hour,
	}
}

func (w *TaskWorker) Start(ctx context.Context) {
	go w.expireOverdueTasks(ctx)
}

// expireOverdueTasks expires published tasks whose deadline passed with no
// doer ever assigned. Escrow is only placed at assignment, so there is no
// money to unwind here.
func (w *TaskWorker) expireOverdueTasks(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("task worker stopped")
			return
		case <-ticker.C:
			expired, err := w.taskService.ExpireOverdue(ctx, time.Now())
			logger.WorkerLog("task_worker", "expire_overdue", err)
			if err == nil && expired > 0 {
				logger.Info("expired overdue tasks", "count", expired)
			}
		}
	}
}
