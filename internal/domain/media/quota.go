package media

import "daybook/internal/domain/auth"

// CheckQuota decides whether an account at usedMB may store sizeMB more.
// The decision is pure; the accounting service makes it binding by
// re-running the comparison inside the reservation transaction.
func CheckQuota(limits TierLimits, tier auth.Tier, usedMB, sizeMB float64) error {
	ceiling := limits.Ceiling(tier)

	if ceiling == UnlimitedMB {
		return nil
	}
	if ceiling == 0 {
		return &QuotaError{Tier: string(tier), LimitMB: 0, RemainingMB: 0}
	}

	remaining := ceiling - usedMB
	if remaining < 0 {
		remaining = 0
	}
	if usedMB+sizeMB > ceiling {
		return &QuotaError{Tier: string(tier), LimitMB: ceiling, RemainingMB: remaining}
	}
	return nil
}
