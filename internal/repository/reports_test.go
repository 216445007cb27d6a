package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

func TestCreateReport_DefaultsPending(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := &models.CommunityReport{
		ReportType:  "Blocked drainage",
		Location:    "Bumadeya",
		Description: "Culvert blocked near the market",
		ImageURL:    "/uploads/culvert.jpg",
	}
	if err := db.CreateReport(ctx, r); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	got, err := db.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got.Status != models.ReportPending {
		t.Errorf("expected pending, got %s", got.Status)
	}
}

func TestReportAnalytics(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed := []struct {
		kind, loc string
		at        time.Time
	}{
		{"Rising water", "Bumadeya", time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)},
		{"Rising water", "Bumadeya", time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC)},
		{"Rising water", "Musoma", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{"Road washed out", "Musoma", time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)},
		{"Blocked drainage", "Musoma", time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)},
	}
	for _, s := range seed {
		r := &models.CommunityReport{ReportType: s.kind, Location: s.loc, Description: "x", CreatedAt: s.at}
		if err := db.CreateReport(ctx, r); err != nil {
			t.Fatalf("CreateReport failed: %v", err)
		}
	}

	byMonth, err := db.ReportsByMonth(ctx)
	if err != nil {
		t.Fatalf("ReportsByMonth failed: %v", err)
	}
	want := []LabelCount{{"2024-04", 2}, {"2024-05", 2}, {"2024-06", 1}}
	if len(byMonth) != len(want) {
		t.Fatalf("expected %d months, got %+v", len(want), byMonth)
	}
	for i := range want {
		if byMonth[i] != want[i] {
			t.Errorf("month %d: expected %+v, got %+v", i, want[i], byMonth[i])
		}
	}

	types, err := db.FrequentReportTypes(ctx, 0)
	if err != nil {
		t.Fatalf("FrequentReportTypes failed: %v", err)
	}
	if types[0].Label != "Rising water" || types[0].Count != 3 {
		t.Errorf("expected 'Rising water' x3 first, got %+v", types[0])
	}

	locations, err := db.FrequentLocations(ctx, 1)
	if err != nil {
		t.Fatalf("FrequentLocations failed: %v", err)
	}
	if len(locations) != 1 || locations[0].Label != "Musoma" || locations[0].Count != 3 {
		t.Errorf("expected Musoma x3, got %+v", locations)
	}

	may, err := db.ReportsInMonth(ctx, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReportsInMonth failed: %v", err)
	}
	if len(may) != 2 {
		t.Errorf("expected 2 reports in May, got %d", len(may))
	}
}

func TestListReports_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := &models.CommunityReport{ReportType: "Rising water", Location: "Bumadeya", Description: "x"}
	b := &models.CommunityReport{ReportType: "Rising water", Location: "Musoma", Description: "y"}
	db.CreateReport(ctx, a)
	db.CreateReport(ctx, b)

	b.Status = models.ReportVerified
	if err := db.UpdateReport(ctx, b); err != nil {
		t.Fatalf("UpdateReport failed: %v", err)
	}

	verified := models.ReportVerified
	results, err := db.ListReports(ctx, ReportFilter{Status: &verified})
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != b.ID {
		t.Errorf("expected only verified report, got %+v", results)
	}

	results, _ = db.ListReports(ctx, ReportFilter{Location: "Bumadeya"})
	if len(results) != 1 || results[0].ID != a.ID {
		t.Errorf("expected only Bumadeya report, got %+v", results)
	}

	if err := db.DeleteReport(ctx, a.ID); err != nil {
		t.Fatalf("DeleteReport failed: %v", err)
	}
	if err := db.DeleteReport(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReportsInMonth_NonUTCTimestamps(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	eat := time.FixedZone("EAT", 3*60*60)

	// 2026-03-31 22:30 UTC is already April 1st in Nairobi
	at := time.Date(2026, 3, 31, 22, 30, 0, 0, time.UTC).In(eat)
	r := &models.CommunityReport{ReportType: "Rising water", Location: "Budalangi", Description: "x", CreatedAt: at}
	if err := db.CreateReport(ctx, r); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	byMonth, err := db.ReportsByMonth(ctx)
	if err != nil {
		t.Fatalf("ReportsByMonth failed: %v", err)
	}
	if len(byMonth) != 1 || byMonth[0] != (LabelCount{"2026-03", 1}) {
		t.Errorf("expected one report in 2026-03, got %+v", byMonth)
	}

	march, err := db.ReportsInMonth(ctx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReportsInMonth failed: %v", err)
	}
	if len(march) != 1 {
		t.Errorf("expected the report in March, got %d", len(march))
	}
	april, _ := db.ReportsInMonth(ctx, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if len(april) != 0 {
		t.Errorf("expected no reports in April, got %d", len(april))
	}

	got, err := db.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("expected created_at %v, got %v", at, got.CreatedAt)
	}
}
