package domain

import (
	"regexp"
	"strings"
	"time"
)

// GuestPrefix replaces the unit code when the resident has none.
const GuestPrefix = "GUEST"

// GeneratePassID renders {UNIT}-{YYYYMMDD}-{HHMM} in the zone of at. It needs no server id,
// so it can be computed before the record exists. Two passes for the same unit within the
// same minute share an identifier.
func GeneratePassID(unitCode string, at time.Time) string {
	unit := strings.TrimSpace(unitCode)
	if unit == "" {
		unit = GuestPrefix
	}
	return unit + "-" + at.Format(passDateLayout)
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:flat|unit|apt|apartment|house|villa|door)\s*(?:no\.?|number|#)?\s*[:\-]?\s*([A-Z]{0,2}-?\d{1,5}[A-Z]?)\b`),
	regexp.MustCompile(`(?i)\b([A-Z]{1,2}-\d{1,5})\b`),
	regexp.MustCompile(`(?i)\b([A-Z]{1,2}\d{2,5})\b`),
}

// ExtractUnitCode pulls a flat/unit code out of a free-text address on a best-effort basis.
// It returns "" when nothing looks like a unit code.
func ExtractUnitCode(address string) string {
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(address); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}
