package media

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind classifies an attachment by its media type.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Status is the attachment's position in the upload state machine.
// pending -> processing -> complete | failed. Only complete attachments
// contribute to the owning account's storage counter.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Attachment describes one stored media object placed on a timeline entry.
// ObjectKey is globally unique; while the attachment is complete it refers
// to exactly one live object in the object store.
type Attachment struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EntryID      string    `gorm:"column:entry_id;type:uuid;not null;index" json:"entry_id"`
	AccountID    int64     `gorm:"column:account_id;not null;index" json:"account_id"`
	Kind         Kind      `gorm:"column:kind;type:varchar(8);not null" json:"kind"`
	ObjectKey    string    `gorm:"column:object_key;uniqueIndex" json:"-"`
	ThumbnailKey *string   `gorm:"column:thumbnail_key" json:"-"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	SizeMB       float64   `gorm:"column:size_mb;not null" json:"size_mb"`
	Width        int       `gorm:"column:width" json:"width"`
	Height       int       `gorm:"column:height" json:"height"`
	DurationSec  float64   `gorm:"column:duration_sec" json:"duration_sec,omitempty"`
	Status       Status    `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Attachment) TableName() string { return "attachments" }

func (a *Attachment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Reconciliation reasons. Each names which side of the two-store pair
// is missing or stale after a partial failure.
const (
	ReasonObjectOrphaned = "object_orphaned" // object exists, no metadata row points at it
	ReasonRowOrphaned    = "row_orphaned"    // metadata row exists, referenced object is gone
	ReasonUsageStale     = "usage_stale"     // storage counter no longer matches complete rows
)

// ReconciliationEntry records a partial failure for the out-of-band sweep.
// Entries are never silently dropped; the sweep resolves them.
type ReconciliationEntry struct {
	ID           string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Reason       string     `gorm:"column:reason;type:varchar(32);not null;index" json:"reason"`
	AttachmentID string     `gorm:"column:attachment_id" json:"attachment_id,omitempty"`
	ObjectKey    string     `gorm:"column:object_key" json:"object_key,omitempty"`
	AccountID    int64      `gorm:"column:account_id" json:"account_id"`
	Detail       string     `gorm:"column:detail" json:"detail,omitempty"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at;index" json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (ReconciliationEntry) TableName() string { return "reconciliation_log" }

func (e *ReconciliationEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
