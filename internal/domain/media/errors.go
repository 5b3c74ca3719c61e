package media

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFileTooLarge         = errors.New("file exceeds the size limit for its media type")
	ErrQuotaExceeded        = errors.New("storage quota exceeded")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccessDenied         = errors.New("you do not own this resource")
	ErrTransformFailure     = errors.New("media could not be processed")
	ErrStoreFailure         = errors.New("object store operation failed")
	ErrAttachmentNotFound   = errors.New("attachment not found")
)

// SizeLimitError reports which per-kind ceiling an upload exceeded.
type SizeLimitError struct {
	Kind    Kind
	SizeMB  float64
	LimitMB float64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s of %.1f MB exceeds the %.0f MB limit", e.Kind, e.SizeMB, e.LimitMB)
}

func (e *SizeLimitError) Unwrap() error { return ErrFileTooLarge }

// QuotaError carries the context a UI needs to explain a rejected upload.
// RemainingMB is the headroom left under the tier ceiling; it is zero for
// the zero-quota tier.
type QuotaError struct {
	Tier        string
	LimitMB     float64
	RemainingMB float64
}

func (e *QuotaError) Error() string {
	if e.LimitMB == 0 {
		return fmt.Sprintf("the %s tier does not include media storage", e.Tier)
	}
	return fmt.Sprintf("storage quota exceeded on the %s tier: %.1f MB of %.0f MB remaining", e.Tier, e.RemainingMB, e.LimitMB)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
