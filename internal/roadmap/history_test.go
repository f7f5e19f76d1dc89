package roadmap

import (
	"context"
	"testing"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/models"
)

func TestHistoryListScopesAndOrders(t *testing.T) {
	db := setupHistoryDB(t)
	history := NewHistory(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.SettingsSave{
		{Shop: "a.myshopify.com", RoadmapID: "one", Status: StatusSuccess, CreatedAt: base},
		{Shop: "a.myshopify.com", RoadmapID: "two", Status: StatusSuccess, CreatedAt: base.Add(time.Hour)},
		{Shop: "b.myshopify.com", RoadmapID: "other", Status: StatusSuccess, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, row := range rows {
		if err := history.Record(ctx, row); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := history.List(ctx, "A.myshopify.com", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].RoadmapID != "two" || got[1].RoadmapID != "one" {
		t.Fatalf("unexpected rows %+v", got)
	}

	limited, err := history.List(ctx, "a.myshopify.com", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestNilHistoryFromNilDB(t *testing.T) {
	if NewHistory(nil) != nil {
		t.Fatalf("expected nil history")
	}
	var h *History
	if err := h.Record(context.Background(), models.SettingsSave{}); err == nil {
		t.Fatalf("expected error from nil history")
	}
}

func TestRetentionCleanerDeletesOldRows(t *testing.T) {
	db := setupHistoryDB(t)
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -40)
	recent := now.AddDate(0, 0, -2)

	for i := 0; i < 3; i++ {
		if err := db.Create(&models.SettingsSave{Shop: "a.myshopify.com", Status: StatusSuccess, CreatedAt: old}).Error; err != nil {
			t.Fatalf("seed old: %v", err)
		}
	}
	if err := db.Create(&models.SettingsSave{Shop: "a.myshopify.com", Status: StatusSuccess, CreatedAt: recent}).Error; err != nil {
		t.Fatalf("seed recent: %v", err)
	}

	cleaner := NewRetentionCleaner(db, 30)
	cleaner.now = func() time.Time { return now }

	if deleted := cleaner.CleanupOnce(context.Background()); deleted != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", deleted)
	}
	var remaining int64
	if err := db.Model(&models.SettingsSave{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining row, got %d", remaining)
	}
}

func TestRetentionCleanerDisabled(t *testing.T) {
	if NewRetentionCleaner(setupHistoryDB(t), 0) != nil {
		t.Fatalf("expected nil cleaner when retention is disabled")
	}
	var cleaner *RetentionCleaner
	if err := cleaner.Run(context.Background()); err != nil {
		t.Fatalf("nil cleaner run: %v", err)
	}
}

func TestRetentionCleanerRunStopsOnCancel(t *testing.T) {
	cleaner := NewRetentionCleaner(setupHistoryDB(t), 7)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cleaner.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("cleaner did not stop")
	}
}
