package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Table is a plain CRUD store for records without domain rules of their own
// (resources, locations, demographics, healthcare, floods, responders,
// generated reports).
type Table[T any] struct {
	db   *gorm.DB
	name string
	omit []string
}

// NewTable builds a store for T. Columns listed in fixed are set on create
// and kept as-is by Update.
func NewTable[T any](s *Store, name string, fixed ...string) *Table[T] {
	return &Table[T]{
		db:   s.db,
		name: name,
		omit: append([]string{"id", "created_at"}, fixed...),
	}
}

func (t *Table[T]) Name() string {
	return t.name
}

func (t *Table[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	var rows []T
	err := t.db.WithContext(ctx).
		Order("id").
		Limit(clampLimit(limit, 100, 1000)).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", t.name, err)
	}
	return rows, nil
}

func (t *Table[T]) Get(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := t.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (t *Table[T]) Create(ctx context.Context, row *T) error {
	if err := t.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("error creating %s: %w", t.name, err)
	}
	return nil
}

// Update replaces every column of row id with the values in row.
func (t *Table[T]) Update(ctx context.Context, id uint, row *T) (*T, error) {
	existing, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = t.db.WithContext(ctx).Model(existing).
		Select("*").Omit(t.omit...).
		Updates(row).Error
	if err != nil {
		return nil, fmt.Errorf("error updating %s: %w", t.name, err)
	}
	return t.Get(ctx, id)
}

func (t *Table[T]) Delete(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("error deleting %s: %w", t.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
