package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

func (s *Store) CreateAlert(ctx context.Context, a *models.Alert) error {
	if a.Status == "" {
		a.Status = models.AlertStatusActive
	}
	a.CreatedAt = a.CreatedAt.UTC()
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("error creating alert: %w", err)
	}
	return nil
}

func (s *Store) GetAlert(ctx context.Context, id uint) (*models.Alert, error) {
	var a models.Alert
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) ListAlerts(ctx context.Context, opts AlertFilter) ([]models.Alert, error) {
	q := s.db.WithContext(ctx).Model(&models.Alert{})
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	if opts.Type != nil {
		q = q.Where("alert_type = ?", *opts.Type)
	}
	if opts.Severity != nil {
		q = q.Where("severity = ?", *opts.Severity)
	}
	if opts.Status != nil {
		q = q.Where("status = ?", *opts.Status)
	}
	if opts.From != nil {
		q = q.Where("created_at >= ?", opts.From.UTC())
	}
	if opts.To != nil {
		q = q.Where("created_at < ?", opts.To.UTC())
	}
	limit := clampLimit(opts.Limit, 50, 500)
	text := strings.ToLower(strings.TrimSpace(opts.Query))
	if text == "" {
		q = q.Limit(limit).Offset(opts.Offset)
	}

	var alerts []models.Alert
	if err := q.Order("created_at DESC").Order("id DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	if text == "" {
		return alerts, nil
	}

	// Free text spans JSON list columns, so it is matched in memory.
	matched := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if alertMatches(&a, text) {
			matched = append(matched, a)
		}
	}
	if opts.Offset >= len(matched) {
		return []models.Alert{}, nil
	}
	matched = matched[opts.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func alertMatches(a *models.Alert, text string) bool {
	fields := []string{a.Location, string(a.AlertType), string(a.Severity)}
	fields = append(fields, a.PrecautionaryMeasures...)
	fields = append(fields, a.EvacuationRoutes...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return false
}

// UpdateAlert replaces every column of an existing alert.
func (s *Store) UpdateAlert(ctx context.Context, a *models.Alert) error {
	res := s.db.WithContext(ctx).Model(&models.Alert{ID: a.ID}).
		Select("*").Omit("id", "created_at").
		Updates(a)
	if res.Error != nil {
		return fmt.Errorf("error updating alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ArchiveAlert(ctx context.Context, id uint) (*models.Alert, error) {
	return s.transitionAlert(ctx, id, (*models.Alert).Archive)
}

func (s *Store) UnarchiveAlert(ctx context.Context, id uint) (*models.Alert, error) {
	return s.transitionAlert(ctx, id, (*models.Alert).Unarchive)
}

func (s *Store) transitionAlert(ctx context.Context, id uint, apply func(*models.Alert) error) (*models.Alert, error) {
	var a models.Alert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, id).Error; err != nil {
			return notFound(err)
		}
		if err := apply(&a); err != nil {
			return err
		}
		return tx.Model(&a).Update("status", a.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) DeleteAlert(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Alert{}, id)
	if res.Error != nil {
		return fmt.Errorf("error deleting alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AlertLocales(ctx context.Context) ([]string, error) {
	var locales []string
	err := s.db.WithContext(ctx).Model(&models.Alert{}).
		Distinct("location").
		Order("location").
		Pluck("location", &locales).Error
	if err != nil {
		return nil, fmt.Errorf("error listing alert locales: %w", err)
	}
	return locales, nil
}

func (s *Store) LatestActiveAlert(ctx context.Context, location string) (*models.Alert, error) {
	var a models.Alert
	err := s.db.WithContext(ctx).
		Where("location = ? AND status = ?", location, models.AlertStatusActive).
		Order("created_at DESC").Order("id DESC").
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}
