package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"gorm.io/gorm"

	"daybook/internal/domain/auth"
	"daybook/internal/storage"
)

// EntryOwner resolves which account owns a timeline entry. Implemented by
// the entry repository; keeps this package from importing the entry domain.
type EntryOwner interface {
	OwnerOf(ctx context.Context, entryID string) (int64, error)
}

// Service is the accounting coordinator. It sequences validation, quota
// admission, transform, object-store commit and metadata bookkeeping, and
// is the only code allowed to mutate an account's storage counter.
//
// Quota admission and the counter increment run in one transaction as a
// conditional update, so concurrent uploads against the same account can
// never jointly overshoot the ceiling. A per-account mutex additionally
// serializes the whole sequence within the process.
type Service struct {
	db        *gorm.DB
	store     storage.ObjectStore
	cfg       Config
	validator *Validator
	transform *Transform
	entries   EntryOwner

	locks sync.Map // account id -> *sync.Mutex
}

func NewService(db *gorm.DB, store storage.ObjectStore, entries EntryOwner, cfg Config, prober Prober) *Service {
	return &Service{
		db:        db,
		store:     store,
		cfg:       cfg,
		validator: NewValidator(cfg),
		transform: NewTransform(cfg, prober),
		entries:   entries,
	}
}

// UploadResult is returned to the HTTP layer after a completed upload.
type UploadResult struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Kind        Kind    `json:"kind"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	DurationSec float64 `json:"duration_sec,omitempty"`
	SizeMB      float64 `json:"size_mb"`
}

// UsageInfo reports the account's position against its tier ceiling.
// LimitMB and RemainingMB are -1 for uncapped tiers.
type UsageInfo struct {
	Tier        string  `json:"tier"`
	LimitMB     float64 `json:"limit_mb"`
	UsedMB      float64 `json:"used_mb"`
	RemainingMB float64 `json:"remaining_mb"`
}

func (s *Service) accountLock(accountID int64) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Upload runs the full ingestion sequence for one file.
func (s *Service) Upload(ctx context.Context, accountID int64, entryID, filename, declaredType string, data []byte) (*UploadResult, error) {
	checked, err := s.validator.Check(data, filename, declaredType)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.entries.OwnerOf(ctx, entryID)
	if err != nil || ownerID != accountID {
		return nil, ErrAccessDenied
	}

	mu := s.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	// The key is assigned up front so the pending row already satisfies
	// the object_key uniqueness constraint.
	key := ObjectKey(accountID, filename)

	att, err := s.reserve(ctx, accountID, entryID, checked, filename, key)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(att).Update("status", StatusProcessing).Error; err != nil {
		s.reverse(ctx, att, checked.SizeMB)
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	body := data
	contentType := checked.ContentType
	finalMB := checked.SizeMB
	var width, height int
	var durationSec float64

	switch checked.Kind {
	case KindImage:
		res, terr := s.transform.Image(data)
		if terr != nil {
			s.reverse(ctx, att, checked.SizeMB)
			return nil, terr
		}
		body = res.Data
		contentType = "image/jpeg"
		finalMB = float64(len(res.Data)) / bytesPerMB
		width, height = res.Width, res.Height
	case KindVideo:
		info, terr := s.transform.Video(ctx, data)
		if terr != nil {
			s.reverse(ctx, att, checked.SizeMB)
			return nil, terr
		}
		width, height = info.Width, info.Height
		durationSec = info.DurationSec
	}

	if _, err := s.store.Put(ctx, key, body, contentType, map[string]string{
		"account-id":    fmt.Sprintf("%d", accountID),
		"original-name": filename,
	}); err != nil {
		s.reverse(ctx, att, checked.SizeMB)
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	if err := s.commit(ctx, att, finalMB, checked.SizeMB, width, height, durationSec); err != nil {
		// The object is in the store with no metadata pointing at it.
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logReconciliation(ctx, ReasonObjectOrphaned, att.ID, key, accountID,
				fmt.Sprintf("commit failed (%v) and compensating delete failed (%v)", err, derr))
		}
		s.reverse(ctx, att, checked.SizeMB)
		return nil, fmt.Errorf("commit attachment: %w", err)
	}

	url, err := s.store.SignGet(ctx, key, s.cfg.SignTTL)
	if err != nil {
		// The upload itself is durable; only the read URL failed.
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	return &UploadResult{
		ID:          att.ID,
		URL:         url,
		Kind:        checked.Kind,
		Width:       width,
		Height:      height,
		DurationSec: durationSec,
		SizeMB:      finalMB,
	}, nil
}

// reserve admits the upload against the tier ceiling and records the
// reservation: counter increment plus a pending attachment row, in one
// transaction. The increment is conditional on the ceiling, so a stale
// usage snapshot can never admit an overshooting upload.
func (s *Service) reserve(ctx context.Context, accountID int64, entryID string, checked *CheckedFile, filename, key string) (*Attachment, error) {
	var att *Attachment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user auth.User
		if err := tx.Where("id = ?", accountID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if err := CheckQuota(s.cfg.Tiers, user.Tier, user.StorageUsedMB, checked.SizeMB); err != nil {
			return err
		}

		ceiling := s.cfg.Tiers.Ceiling(user.Tier)
		increment := tx.Model(&auth.User{}).Where("id = ?", accountID)
		if ceiling != UnlimitedMB {
			increment = increment.Where("storage_used_mb + ? <= ?", checked.SizeMB, ceiling)
		}
		res := increment.Update("storage_used_mb", gorm.Expr("storage_used_mb + ?", checked.SizeMB))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another writer consumed the headroom since the snapshot.
			var fresh auth.User
			if err := tx.Where("id = ?", accountID).First(&fresh).Error; err != nil {
				return ErrAccountNotFound
			}
			remaining := ceiling - fresh.StorageUsedMB
			if remaining < 0 {
				remaining = 0
			}
			return &QuotaError{Tier: string(fresh.Tier), LimitMB: ceiling, RemainingMB: remaining}
		}

		att = &Attachment{
			EntryID:      entryID,
			AccountID:    accountID,
			Kind:         checked.Kind,
			ObjectKey:    key,
			OriginalName: filename,
			SizeMB:       checked.SizeMB,
			Status:       StatusPending,
		}
		return tx.Create(att).Error
	})
	if err != nil {
		return nil, err
	}
	return att, nil
}

// commit finishes the attachment row and settles the counter against the
// final stored size (re-encoding usually shrinks images).
func (s *Service) commit(ctx context.Context, att *Attachment, finalMB, reservedMB float64, width, height int, durationSec float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(att).Updates(map[string]any{
			"size_mb":      finalMB,
			"width":        width,
			"height":       height,
			"duration_sec": durationSec,
			"status":       StatusComplete,
		}).Error; err != nil {
			return err
		}

		delta := finalMB - reservedMB
		if delta == 0 {
			return nil
		}
		return tx.Model(&auth.User{}).Where("id = ?", att.AccountID).
			Update("storage_used_mb", flooredAdjust(delta)).Error
	})
}

// reverse undoes a reservation: counter decrement and terminal failed
// status. A failure here is flagged for the sweep, never swallowed.
func (s *Service) reverse(ctx context.Context, att *Attachment, reservedMB float64) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&auth.User{}).Where("id = ?", att.AccountID).
			Update("storage_used_mb", flooredAdjust(-reservedMB)).Error; err != nil {
			return err
		}
		return tx.Model(att).Update("status", StatusFailed).Error
	})
	if err != nil {
		s.logReconciliation(ctx, ReasonUsageStale, att.ID, "", att.AccountID,
			fmt.Sprintf("failed to reverse %.3f MB reservation: %v", reservedMB, err))
	}
}

// Delete removes an attachment. The object-store delete runs first: if it
// fails the metadata row survives so the object can be retried, which is
// strictly better than permanently orphaning a live object.
func (s *Service) Delete(ctx context.Context, attachmentID string, accountID int64) error {
	att, err := s.getAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	if att.AccountID != accountID {
		return ErrAccessDenied
	}

	mu := s.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	if att.ObjectKey != "" {
		if err := s.store.Delete(ctx, att.ObjectKey); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
	}
	if att.ThumbnailKey != nil && *att.ThumbnailKey != "" {
		if err := s.store.Delete(ctx, *att.ThumbnailKey); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
	}

	wasComplete := att.Status == StatusComplete
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", att.ID).Delete(&Attachment{}).Error; err != nil {
			return err
		}
		if !wasComplete {
			return nil
		}
		return tx.Model(&auth.User{}).Where("id = ?", att.AccountID).
			Update("storage_used_mb", flooredAdjust(-att.SizeMB)).Error
	})
	if err != nil {
		// Object is gone but the row remains; the sweep purges it.
		s.logReconciliation(ctx, ReasonRowOrphaned, att.ID, att.ObjectKey, att.AccountID,
			fmt.Sprintf("metadata delete failed after object delete: %v", err))
		return err
	}
	return nil
}

// DeleteForEntry removes every attachment on an entry. Used by the entry
// service when an entry is destroyed.
func (s *Service) DeleteForEntry(ctx context.Context, entryID string, accountID int64) error {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&Attachment{}).
		Where("entry_id = ?", entryID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Delete(ctx, id, accountID); err != nil {
			return err
		}
	}
	return nil
}

// ReadURL mints a fresh signed URL for a completed attachment. URLs are
// not cached; every call may produce a new one.
func (s *Service) ReadURL(ctx context.Context, attachmentID string, accountID int64) (string, error) {
	att, err := s.getAttachment(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if att.AccountID != accountID {
		return "", ErrAccessDenied
	}
	if att.Status != StatusComplete {
		return "", ErrAttachmentNotFound
	}

	url, err := s.store.SignGet(ctx, att.ObjectKey, s.cfg.SignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return url, nil
}

// ListForEntry returns the attachments on an entry the account owns.
func (s *Service) ListForEntry(ctx context.Context, entryID string, accountID int64) ([]*Attachment, error) {
	ownerID, err := s.entries.OwnerOf(ctx, entryID)
	if err != nil || ownerID != accountID {
		return nil, ErrAccessDenied
	}

	var atts []*Attachment
	err = s.db.WithContext(ctx).
		Where("entry_id = ? AND status = ?", entryID, StatusComplete).
		Order("created_at ASC").Find(&atts).Error
	return atts, err
}

// Usage reports the account's storage position for the UI.
func (s *Service) Usage(ctx context.Context, accountID int64) (*UsageInfo, error) {
	var user auth.User
	if err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	ceiling := s.cfg.Tiers.Ceiling(user.Tier)
	info := &UsageInfo{Tier: string(user.Tier), LimitMB: ceiling, UsedMB: user.StorageUsedMB}
	if ceiling == UnlimitedMB {
		info.RemainingMB = UnlimitedMB
	} else {
		info.RemainingMB = ceiling - user.StorageUsedMB
		if info.RemainingMB < 0 {
			info.RemainingMB = 0
		}
	}
	return info, nil
}

func (s *Service) getAttachment(ctx context.Context, id string) (*Attachment, error) {
	var att Attachment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (s *Service) logReconciliation(ctx context.Context, reason, attachmentID, objectKey string, accountID int64, detail string) {
	entry := &ReconciliationEntry{
		Reason:       reason,
		AttachmentID: attachmentID,
		ObjectKey:    objectKey,
		AccountID:    accountID,
		Detail:       detail,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		// Last resort: the process log still carries the orphan.
		log.Printf("reconciliation log write failed: reason=%s attachment=%s key=%s account=%d detail=%q err=%v",
			reason, attachmentID, objectKey, accountID, detail, err)
	}
}

// flooredAdjust applies a signed delta to the counter without letting it
// go negative.
func flooredAdjust(delta float64) any {
	return gorm.Expr("CASE WHEN storage_used_mb + ? < 0 THEN 0 ELSE storage_used_mb + ? END", delta, delta)
}
