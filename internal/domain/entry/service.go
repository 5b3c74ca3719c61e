package entry

import (
	"context"
	"time"
)

// AttachmentPurger removes every attachment on an entry, including the
// stored objects and the usage accounting. Implemented by the media
// service.
type AttachmentPurger interface {
	DeleteForEntry(ctx context.Context, entryID string, accountID int64) error
}

type Service struct {
	repo   Repository
	purger AttachmentPurger
}

func NewService(repo Repository, purger AttachmentPurger) *Service {
	return &Service{repo: repo, purger: purger}
}

func (s *Service) Create(ctx context.Context, accountID int64, req CreateRequest) (*Entry, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		AccountID: accountID,
		Date:      date,
		Title:     req.Title,
		Body:      req.Body,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string, accountID int64) (*Entry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.AccountID != accountID {
		return nil, ErrNotOwner
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, accountID int64) ([]*Entry, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

func (s *Service) Update(ctx context.Context, id string, accountID int64, req UpdateRequest) (*Entry, error) {
	e, err := s.Get(ctx, id, accountID)
	if err != nil {
		return nil, err
	}

	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, err
		}
		e.Date = date
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Body != nil {
		e.Body = *req.Body
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete destroys the entry and cascades through its attachments first,
// so the stored objects are removed and the usage counter settles before
// the entry row disappears.
func (s *Service) Delete(ctx context.Context, id string, accountID int64) error {
	if _, err := s.Get(ctx, id, accountID); err != nil {
		return err
	}

	if s.purger != nil {
		if err := s.purger.DeleteForEntry(ctx, id, accountID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}
