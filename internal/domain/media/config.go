package media

import (
	"time"

	"daybook/internal/domain/auth"
)

// UnlimitedMB is the ceiling sentinel for tiers with no storage cap.
const UnlimitedMB = -1

// TierLimits maps a subscription tier to its storage ceiling in MB.
// A zero ceiling admits nothing; UnlimitedMB admits everything.
type TierLimits map[auth.Tier]float64

// Ceiling returns the ceiling for a tier. Unknown tiers get zero, which
// rejects all uploads rather than admitting them.
func (t TierLimits) Ceiling(tier auth.Tier) float64 {
	ceiling, ok := t[tier]
	if !ok {
		return 0
	}
	return ceiling
}

// DefaultTierLimits returns the production tier table. personalMB is
// configurable; free stores nothing and pro is uncapped.
func DefaultTierLimits(personalMB float64) TierLimits {
	return TierLimits{
		auth.TierFree:     0,
		auth.TierPersonal: personalMB,
		auth.TierPro:      UnlimitedMB,
	}
}

// Config is the accounting service's static configuration. Tests inject
// tight limits; cmd/api builds it from the environment.
type Config struct {
	ImageMaxMB   float64
	VideoMaxMB   float64
	MaxImageSide int
	JPEGQuality  int
	SignTTL      time.Duration
	StaleAfter   time.Duration
	Tiers        TierLimits
}

func DefaultConfig() Config {
	return Config{
		ImageMaxMB:   10,
		VideoMaxMB:   100,
		MaxImageSide: 2048,
		JPEGQuality:  85,
		SignTTL:      time.Hour,
		StaleAfter:   time.Hour,
		Tiers:        DefaultTierLimits(1024),
	}
}
