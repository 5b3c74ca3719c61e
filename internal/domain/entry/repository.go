package entry

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error

	// OwnerOf satisfies the media domain's ownership lookup.
	OwnerOf(ctx context.Context, id string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}
	return &e, err
}

func (r *repository) ListByAccount(ctx context.Context, accountID int64) ([]*Entry, error) {
	var entries []*Entry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("date DESC, created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) Update(ctx context.Context, e *Entry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&Entry{}).Error
}

func (r *repository) OwnerOf(ctx context.Context, id string) (int64, error) {
	var e Entry
	err := r.db.WithContext(ctx).Select("account_id").Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrEntryNotFound
	}
	return e.AccountID, err
}
