package ingestion

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mr1hm/go-flood-alerts/internal/config"
	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
	"github.com/mr1hm/go-flood-alerts/internal/worker"
)

// Manager polls external feeds and records unseen flood events.
type Manager struct {
	cfg       *config.Config
	repo      repository.FloodRepository
	publisher events.Publisher
	client    *http.Client
	pool      *worker.WorkerPool[*models.Flood]
	wg        sync.WaitGroup
}

func NewManager(cfg *config.Config, repo repository.FloodRepository, publisher events.Publisher) *Manager {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Manager{
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.pool = worker.NewWorkerPool("ingestion", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, m.record)
	m.pool.Start(ctx)

	if m.cfg.Sources.GDACSEnabled {
		m.wg.Add(1)
		go m.runPoller(ctx, gdacsSource, m.cfg.Sources.GDACSURL, m.cfg.Sources.GDACSPollInterval)
	}
}

func (m *Manager) record(ctx context.Context, flood *models.Flood) error {
	exists, err := m.repo.FloodExists(ctx, flood.ExternalID)
	if err != nil {
		slog.Error("error checking existence", "id", flood.ExternalID, "error", err)
		return err
	}
	if exists {
		return nil
	}

	if err := m.repo.AddFlood(ctx, flood); err != nil {
		slog.Error("error adding flood", "id", flood.ExternalID, "error", err)
		return err
	}

	if err := m.publisher.Publish(ctx, events.New(events.FloodRecorded, flood)); err != nil {
		slog.Warn("error publishing flood event", "id", flood.ExternalID, "error", err)
	}

	slog.Info("added flood", "id", flood.ExternalID, "location", flood.Location, "source", flood.Source)
	return nil
}

func (m *Manager) runPoller(ctx context.Context, source, url string, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting poller", "source", source, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.poll(ctx, source, url)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down", "source", source)
			return
		case <-ticker.C:
			m.poll(ctx, source, url)
		}
	}
}

func (m *Manager) poll(ctx context.Context, source, url string) {
	slog.Debug("polling", "source", source)

	floods, err := m.pollGDACS(ctx, url)
	if err != nil {
		slog.Error("poll failed", "source", source, "error", err)
		return
	}

	for _, f := range floods {
		if err := m.pool.SubmitContext(ctx, f); err != nil {
			return
		}
	}

	slog.Debug("poll complete", "source", source, "count", len(floods))
}

func (m *Manager) Stop() {
	m.wg.Wait()
	m.pool.Stop()
	slog.Info("ingestion manager stopped")
}
