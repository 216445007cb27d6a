package repository

import (
	"context"
	"fmt"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

// AppendAlertLog writes a new ledger row. Existing rows are never touched.
func (s *Store) AppendAlertLog(ctx context.Context, entry *models.AlertLog) error {
	if entry.ID != 0 {
		return models.ErrImmutableLog
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("error appending alert log: %w", err)
	}
	return nil
}

func (s *Store) ListAlertLogs(ctx context.Context, opts AlertLogFilter) ([]models.AlertLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AlertLog{})
	if opts.Location != "" {
		q = q.Where("location = ?", opts.Location)
	}
	if opts.Method != nil {
		q = q.Where("method = ?", *opts.Method)
	}
	if opts.Status != nil {
		q = q.Where("status = ?", *opts.Status)
	}

	var logs []models.AlertLog
	err := q.Order("time_sent DESC").Order("id DESC").
		Limit(clampLimit(opts.Limit, 100, 1000)).
		Offset(opts.Offset).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("error listing alert logs: %w", err)
	}
	return logs, nil
}
