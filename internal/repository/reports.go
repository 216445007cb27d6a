package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

func (s *Store) CreateReport(ctx context.Context, r *models.CommunityReport) error {
	if r.Status == "" {
		r.Status = models.ReportPending
	}
	r.CreatedAt = r.CreatedAt.UTC()
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("error creating report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id uint) (*models.CommunityReport, error) {
	var r models.CommunityReport
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) ListReports(ctx context.Context, opts ReportFilter) ([]models.CommunityReport, error) {
	q := s.db.WithContext(ctx).Model(&models.CommunityReport{})
	if opts.Status != nil {
		q = q.Where("status = ?", *opts.Status)
	}
	if opts.Type != "" {
		q = q.Where("report_type = ?", opts.Type)
	}
	if opts.Location != "" {
		q = q.Where("location = ?", opts.Location)
	}

	var reports []models.CommunityReport
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(clampLimit(opts.Limit, 50, 500)).
		Offset(opts.Offset).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	return reports, nil
}

func (s *Store) UpdateReport(ctx context.Context, r *models.CommunityReport) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return fmt.Errorf("error updating report: %w", err)
	}
	return nil
}

func (s *Store) DeleteReport(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.CommunityReport{}, id)
	if res.Error != nil {
		return fmt.Errorf("error deleting report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReportsInMonth returns reports created during the calendar month of month.
func (s *Store) ReportsInMonth(ctx context.Context, month time.Time) ([]models.CommunityReport, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var reports []models.CommunityReport
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("error listing reports for month: %w", err)
	}
	return reports, nil
}

// ReportsByMonth counts reports per YYYY-MM. Month truncation differs per SQL
// dialect, so the grouping happens here.
func (s *Store) ReportsByMonth(ctx context.Context) ([]LabelCount, error) {
	var rows []models.CommunityReport
	if err := s.db.WithContext(ctx).Select("id", "created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error loading report dates: %w", err)
	}

	byMonth := make(map[string]int64)
	for _, r := range rows {
		byMonth[r.CreatedAt.UTC().Format("2006-01")]++
	}

	counts := make([]LabelCount, 0, len(byMonth))
	for month, n := range byMonth {
		counts = append(counts, LabelCount{Label: month, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Label < counts[j].Label })
	return counts, nil
}

func (s *Store) FrequentReportTypes(ctx context.Context, limit int) ([]LabelCount, error) {
	return s.countReportsBy(ctx, "report_type", limit)
}

func (s *Store) FrequentLocations(ctx context.Context, limit int) ([]LabelCount, error) {
	return s.countReportsBy(ctx, "location", limit)
}

func (s *Store) countReportsBy(ctx context.Context, column string, limit int) ([]LabelCount, error) {
	var counts []LabelCount
	err := s.db.WithContext(ctx).Model(&models.CommunityReport{}).
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Order("count DESC").Order("label").
		Limit(clampLimit(limit, 10, 100)).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("error counting reports by %s: %w", column, err)
	}
	return counts, nil
}
