package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"daybook/internal/domain/auth"
)

func TestReconcilerFailsStaleUploads(t *testing.T) {
	f := setupService(t, testConfig(DefaultTierLimits(1024)))
	user := f.addUser(t, auth.TierPersonal, 0)

	stale := &Attachment{EntryID: "e1", AccountID: user.ID, Kind: KindVideo, SizeMB: 2, Status: StatusProcessing, ObjectKey: "stale-key"}
	fresh := &Attachment{EntryID: "e1", AccountID: user.ID, Kind: KindVideo, SizeMB: 2, Status: StatusPending, ObjectKey: "fresh-key"}
	for _, att := range []*Attachment{stale, fresh} {
		if err := f.db.Create(att).Error; err != nil {
			t.Fatalf("failed to create attachment: %v", err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := f.db.Model(&Attachment{}).Where("id = ?", stale.ID).UpdateColumn("updated_at", past).Error; err != nil {
		t.Fatalf("failed to age attachment: %v", err)
	}

	rec := NewReconciler(f.db, f.store, time.Hour)
	report, err := rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.StaleFailed != 1 {
		t.Fatalf("expected 1 stale attachment failed, got %d", report.StaleFailed)
	}

	var reloaded Attachment
	if err := f.db.Where("id = ?", stale.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("failed to reload attachment: %v", err)
	}
	if reloaded.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", reloaded.Status)
	}
	reloaded = Attachment{}
	if err := f.db.Where("id = ?", fresh.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("failed to reload attachment: %v", err)
	}
	if reloaded.Status != StatusPending {
		t.Fatalf("recent upload must not be touched, got %s", reloaded.Status)
	}
}

func TestReconcilerRecomputesUsage(t *testing.T) {
	f := setupService(t, testConfig(DefaultTierLimits(1024)))
	user := f.addUser(t, auth.TierPersonal, 100)

	rows := []*Attachment{
		{EntryID: "e1", AccountID: user.ID, Kind: KindVideo, SizeMB: 20, Status: StatusComplete, ObjectKey: "k1"},
		{EntryID: "e1", AccountID: user.ID, Kind: KindVideo, SizeMB: 10, Status: StatusComplete, ObjectKey: "k2"},
		{EntryID: "e1", AccountID: user.ID, Kind: KindVideo, SizeMB: 50, Status: StatusFailed, ObjectKey: "k3"},
	}
	for _, att := range rows {
		if err := f.db.Create(att).Error; err != nil {
			t.Fatalf("failed to create attachment: %v", err)
		}
	}

	rec := NewReconciler(f.db, f.store, time.Hour)
	report, err := rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.UsageCorrected != 1 {
		t.Fatalf("expected 1 corrected account, got %d", report.UsageCorrected)
	}
	if got := f.usedMB(t, user.ID); got != 30 {
		t.Fatalf("expected recomputed usage 30, got %g", got)
	}

	// A second sweep finds nothing to correct.
	report, err = rec.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if report.UsageCorrected != 0 {
		t.Fatalf("settled account must not be corrected again, got %d", report.UsageCorrected)
	}
}

func TestReconcilerResolvesOrphanedObject(t *testing.T) {
	f := setupService(t, testConfig(DefaultTierLimits(1024)))
	user := f.addUser(t, auth.TierPersonal, 0)
	ctx := context.Background()

	if _, err := f.store.Put(ctx, "users/1/orphan.bin", []byte("abandoned"), "application/octet-stream", nil); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	logEntry := &ReconciliationEntry{Reason: ReasonObjectOrphaned, ObjectKey: "users/1/orphan.bin", AccountID: user.ID}
	if err := f.db.Create(logEntry).Error; err != nil {
		t.Fatalf("failed to create log entry: %v", err)
	}

	rec := NewReconciler(f.db, f.store, time.Hour)
	report, err := rec.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.OrphansResolved != 1 {
		t.Fatalf("expected 1 resolved orphan, got %d", report.OrphansResolved)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected orphaned object deleted, %d objects remain", f.store.Len())
	}

	var reloaded ReconciliationEntry
	if err := f.db.Where("id = ?", logEntry.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("failed to reload log entry: %v", err)
	}
	if reloaded.ResolvedAt == nil {
		t.Fatal("expected entry marked resolved")
	}
}

func TestReconcilerResolvesOrphanedRow(t *testing.T) {
	f := setupService(t, testConfig(DefaultTierLimits(1024)))
	user := f.addUser(t, auth.TierPersonal, 0)
	ctx := context.Background()

	att := &Attachment{EntryID: "e1", AccountID: user.ID, Kind: KindVideo, SizeMB: 4, Status: StatusComplete, ObjectKey: "gone"}
	if err := f.db.Create(att).Error; err != nil {
		t.Fatalf("failed to create attachment: %v", err)
	}
	logEntry := &ReconciliationEntry{Reason: ReasonRowOrphaned, AttachmentID: att.ID, ObjectKey: "gone", AccountID: user.ID}
	if err := f.db.Create(logEntry).Error; err != nil {
		t.Fatalf("failed to create log entry: %v", err)
	}

	rec := NewReconciler(f.db, f.store, time.Hour)
	report, err := rec.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.OrphansResolved != 1 {
		t.Fatalf("expected 1 resolved orphan, got %d", report.OrphansResolved)
	}

	var count int64
	if err := f.db.Model(&Attachment{}).Where("id = ?", att.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count attachments: %v", err)
	}
	if count != 0 {
		t.Fatal("expected orphaned row purged")
	}
}

func TestReconcilerUndeletableOrphanStaysOpen(t *testing.T) {
	f := setupService(t, testConfig(DefaultTierLimits(1024)))
	user := f.addUser(t, auth.TierPersonal, 0)
	ctx := context.Background()

	if _, err := f.store.Put(ctx, "users/1/stuck.bin", []byte("abandoned"), "application/octet-stream", nil); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	logEntry := &ReconciliationEntry{Reason: ReasonObjectOrphaned, ObjectKey: "users/1/stuck.bin", AccountID: user.ID}
	if err := f.db.Create(logEntry).Error; err != nil {
		t.Fatalf("failed to create log entry: %v", err)
	}
	f.store.FailDeletes(errors.New("backend down"))

	rec := NewReconciler(f.db, f.store, time.Hour)
	report, err := rec.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.OrphansResolved != 0 {
		t.Fatalf("undeletable orphan must stay open, got %d resolved", report.OrphansResolved)
	}

	var reloaded ReconciliationEntry
	if err := f.db.Where("id = ?", logEntry.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("failed to reload log entry: %v", err)
	}
	if reloaded.ResolvedAt != nil {
		t.Fatal("entry must remain unresolved for the next sweep")
	}
}
