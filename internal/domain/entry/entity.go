package entry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one dated timeline item owned by an account. Attachments
// reference the entry by id and are destroyed with it.
type Entry struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AccountID int64     `gorm:"column:account_id;not null;index" json:"account_id"`
	Date      time.Time `gorm:"column:date;not null;index" json:"date"`
	Title     string    `gorm:"column:title" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Entry) TableName() string { return "entries" }

func (e *Entry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
