package scheduler

import (
	"context"
	"errors"
	"fmt"

	"leadbroker_backend/internal/events"
	"leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/platform/config"
	"leadbroker_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

// handleFollowUpReminder fires the follow-up event for a lead whose scheduled
// time has arrived. Reminders for deleted or rescheduled leads are dropped
// without error so asynq does not retry them.
func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	lead, err := w.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if lead.FollowUpAt == nil || !lead.FollowUpAt.Equal(payload.DueAt) {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.FollowUpDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
	})
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
