package media

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const maxBaseNameLen = 50

// ObjectKey builds the storage key for a new upload:
//
//	users/{accountId}/{unixMillis}_{16-hex-random}_{sanitizedBaseName}{ext}
//
// The format is load-bearing: existing stored objects follow it, so it
// must not change shape.
func ObjectKey(accountID int64, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("users/%d/%d_%s_%s%s",
		accountID,
		time.Now().UnixMilli(),
		randomHex16(),
		sanitizeBaseName(originalName),
		ext,
	)
}

// sanitizeBaseName strips the extension and replaces every character
// outside [A-Za-z0-9_-] with an underscore, capped at 50 characters.
func sanitizeBaseName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, base)
	if len(base) > maxBaseNameLen {
		base = base[:maxBaseNameLen]
	}
	return base
}

func randomHex16() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the process is in a bad state;
		// fall back to a time-derived value rather than panic.
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
