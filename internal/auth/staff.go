package auth

import "strings"

// IsInternalStaff reports whether email belongs to allowedDomain.
// The comparison is case-insensitive on the domain part only.
func IsInternalStaff(email, allowedDomain string) bool {
	if email == "" || allowedDomain == "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return false
	}
	return strings.EqualFold(email[at+1:], allowedDomain)
}
