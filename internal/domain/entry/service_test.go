package entry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"daybook/internal/database"
)

// purgerSpy records cascade calls and can simulate a failing purge.
type purgerSpy struct {
	purged []string
	err    error
}

func (p *purgerSpy) DeleteForEntry(_ context.Context, entryID string, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.purged = append(p.purged, entryID)
	return nil
}

func setupEntryService(t *testing.T) (*Service, *purgerSpy, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:entry_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	purger := &purgerSpy{}
	return NewService(NewRepository(db), purger), purger, db
}

func TestCreateEntry(t *testing.T) {
	svc, _, _ := setupEntryService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, 1, CreateRequest{Date: "2026-08-01", Title: "Hiking day", Body: "Long walk."})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	if e.Date.Format("2006-01-02") != "2026-08-01" {
		t.Fatalf("unexpected date: %s", e.Date)
	}

	if _, err := svc.Create(ctx, 1, CreateRequest{Date: "01.08.2026", Title: "Bad date"}); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, _ := setupEntryService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, 1, CreateRequest{Date: "2026-08-01", Title: "Mine"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Get(ctx, e.ID, 1); err != nil {
		t.Fatalf("owner Get returned error: %v", err)
	}
	if _, err := svc.Get(ctx, e.ID, 2); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.Get(ctx, "missing-id", 1); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestListReturnsOwnEntriesNewestFirst(t *testing.T) {
	svc, _, _ := setupEntryService(t)
	ctx := context.Background()

	for _, date := range []string{"2026-08-01", "2026-08-03", "2026-08-02"} {
		if _, err := svc.Create(ctx, 1, CreateRequest{Date: date, Title: date}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if _, err := svc.Create(ctx, 2, CreateRequest{Date: "2026-08-04", Title: "Someone else"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	entries, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"2026-08-03", "2026-08-02", "2026-08-01"} {
		if got := entries[i].Date.Format("2006-01-02"); got != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestUpdateEntry(t *testing.T) {
	svc, _, _ := setupEntryService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, 1, CreateRequest{Date: "2026-08-01", Title: "Draft", Body: "v1"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	title := "Final"
	updated, err := svc.Update(ctx, e.ID, 1, UpdateRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "Final" || updated.Body != "v1" {
		t.Fatalf("partial update broke fields: %+v", updated)
	}

	if _, err := svc.Update(ctx, e.ID, 2, UpdateRequest{Title: &title}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestDeleteCascadesThroughPurger(t *testing.T) {
	svc, purger, _ := setupEntryService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, 1, CreateRequest{Date: "2026-08-01", Title: "Doomed"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(ctx, e.ID, 1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != e.ID {
		t.Fatalf("expected purge of %s, got %v", e.ID, purger.purged)
	}
	if _, err := svc.Get(ctx, e.ID, 1); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound after delete, got %v", err)
	}
}

func TestDeleteKeepsEntryWhenPurgeFails(t *testing.T) {
	svc, purger, _ := setupEntryService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, 1, CreateRequest{Date: "2026-08-01", Title: "Sticky"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	purger.err = errors.New("store down")
	if err := svc.Delete(ctx, e.ID, 1); err == nil {
		t.Fatal("expected delete to fail when purge fails")
	}
	if _, err := svc.Get(ctx, e.ID, 1); err != nil {
		t.Fatalf("entry must survive a failed cascade, got %v", err)
	}
}

func TestRepositoryOwnerOf(t *testing.T) {
	svc, _, db := setupEntryService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, 7, CreateRequest{Date: "2026-08-01", Title: "Owned"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	repo := NewRepository(db)
	ownerID, err := repo.OwnerOf(ctx, e.ID)
	if err != nil {
		t.Fatalf("OwnerOf returned error: %v", err)
	}
	if ownerID != 7 {
		t.Fatalf("expected owner 7, got %d", ownerID)
	}
	if _, err := repo.OwnerOf(ctx, "missing-id"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
