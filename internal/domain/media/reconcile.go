package media

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"daybook/internal/domain/auth"
	"daybook/internal/storage"
)

// Reconciler restores the accounting invariant out of band: every
// account's storage counter equals the sum of its complete attachment
// sizes, and no orphaned objects or rows survive a sweep.
type Reconciler struct {
	db         *gorm.DB
	store      storage.ObjectStore
	staleAfter time.Duration
}

// ReconcileReport counts what a sweep touched.
type ReconcileReport struct {
	StaleFailed     int
	UsageCorrected  int
	OrphansResolved int
}

func NewReconciler(db *gorm.DB, store storage.ObjectStore, staleAfter time.Duration) *Reconciler {
	return &Reconciler{db: db, store: store, staleAfter: staleAfter}
}

// Run executes one full sweep. Steps are ordered so the usage recompute
// sees terminal statuses only.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	n, err := r.failStaleAttachments(ctx)
	if err != nil {
		return report, fmt.Errorf("fail stale attachments: %w", err)
	}
	report.StaleFailed = n

	n, err = r.recomputeUsage(ctx)
	if err != nil {
		return report, fmt.Errorf("recompute usage: %w", err)
	}
	report.UsageCorrected = n

	n, err = r.resolveOrphans(ctx)
	if err != nil {
		return report, fmt.Errorf("resolve orphans: %w", err)
	}
	report.OrphansResolved = n

	return report, nil
}

// failStaleAttachments terminates rows stuck in pending/processing past
// the timeout. An interrupted upload must end in a terminal state; the
// counter is settled by the recompute that follows.
func (r *Reconciler) failStaleAttachments(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.staleAfter)
	res := r.db.WithContext(ctx).Model(&Attachment{}).
		Where("status IN ? AND updated_at < ?", []Status{StatusPending, StatusProcessing}, cutoff).
		Update("status", StatusFailed)
	return int(res.RowsAffected), res.Error
}

// recomputeUsage sets every account's counter to the sum of its complete
// attachment sizes. This subsumes stale reservations and flagged
// usage_stale entries.
func (r *Reconciler) recomputeUsage(ctx context.Context) (int, error) {
	var accounts []auth.User
	if err := r.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return 0, err
	}

	corrected := 0
	for _, account := range accounts {
		var total float64
		err := r.db.WithContext(ctx).Model(&Attachment{}).
			Where("account_id = ? AND status = ?", account.ID, StatusComplete).
			Select("COALESCE(SUM(size_mb), 0)").Scan(&total).Error
		if err != nil {
			return corrected, err
		}

		const epsilon = 0.0001
		diff := account.StorageUsedMB - total
		if diff > epsilon || diff < -epsilon {
			err := r.db.WithContext(ctx).Model(&auth.User{}).
				Where("id = ?", account.ID).
				Update("storage_used_mb", total).Error
			if err != nil {
				return corrected, err
			}
			log.Printf("reconcile: account=%d usage corrected %.3f -> %.3f MB", account.ID, account.StorageUsedMB, total)
			corrected++
		}
	}
	return corrected, nil
}

// resolveOrphans closes out logged partial failures: orphaned objects are
// deleted from the store, orphaned rows are purged from metadata.
func (r *Reconciler) resolveOrphans(ctx context.Context) (int, error) {
	var entries []ReconciliationEntry
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").Order("created_at ASC").Find(&entries).Error
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, entry := range entries {
		switch entry.Reason {
		case ReasonObjectOrphaned:
			if entry.ObjectKey != "" {
				if err := r.store.Delete(ctx, entry.ObjectKey); err != nil {
					log.Printf("reconcile: orphan object %s still undeletable: %v", entry.ObjectKey, err)
					continue
				}
			}
		case ReasonRowOrphaned:
			if entry.AttachmentID != "" {
				err := r.db.WithContext(ctx).
					Where("id = ?", entry.AttachmentID).Delete(&Attachment{}).Error
				if err != nil {
					log.Printf("reconcile: orphan row %s still undeletable: %v", entry.AttachmentID, err)
					continue
				}
			}
		case ReasonUsageStale:
			// Settled by recomputeUsage above.
		default:
			log.Printf("reconcile: unknown reason %q in entry %s", entry.Reason, entry.ID)
			continue
		}

		now := time.Now()
		err := r.db.WithContext(ctx).Model(&ReconciliationEntry{}).
			Where("id = ?", entry.ID).Update("resolved_at", now).Error
		if err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}
