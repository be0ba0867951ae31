package contextutils

import (
	"net/url"
	"strings"
)

// MaskSecret masks a secret for logging purposes to prevent exposure
// Returns a masked version that shows only first 4 and last 4 characters
func MaskSecret(secret string) string {
	if secret == "" {
		return "[EMPTY]"
	}

	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}

	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// MaskDatabaseURL hides the password component of a connection URL so the
// URL can be safely logged.
func MaskDatabaseURL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "[UNPARSEABLE]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
