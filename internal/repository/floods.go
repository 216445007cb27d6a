package repository

import (
	"context"
	"fmt"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

// NewFloodTable serves manual edits of recorded floods. Feed identity and the
// raw feed payload are never taken from a request body.
func NewFloodTable(s *Store) *Table[models.Flood] {
	return NewTable[models.Flood](s, "floods", "external_id", "source", "raw")
}

func (s *Store) AddFlood(ctx context.Context, f *models.Flood) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("error adding flood: %w", err)
	}
	return nil
}

func (s *Store) FloodExists(ctx context.Context, externalID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Flood{}).
		Where("external_id = ?", externalID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking flood: %w", err)
	}
	return count > 0, nil
}
