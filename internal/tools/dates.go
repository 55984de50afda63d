package tools

import "time"

// ToISODate converts a DD/MM/YYYY guest-facing date to the YYYY-MM-DD
// form the booking backend expects. Dates already in ISO form pass
// through unchanged, as does anything unparseable — the backend rejects
// bad dates with a clearer message than we could synthesize here.
func ToISODate(s string) string {
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return t.Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s
	}
	return s
}
