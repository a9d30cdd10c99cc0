package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/dopingplot/pkg/errors"
)

// epoch anchors race durations on a calendar so they can be exported as
// timestamps (data-yvalue).
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxMinutes is the largest minutes value for which m*60+59 fits in an int.
const maxMinutes = (math.MaxInt - 59) / 60

// ParseSeconds converts a "minutes:seconds" string into elapsed seconds.
//
// Both components must be non-negative base-10 integers and seconds must be
// below 60. The seconds component may or may not be zero-padded ("36:5" and
// "36:05" are equal). Minutes too large for the result to fit in an int are
// rejected. Any other shape returns an INVALID_TIME error.
func ParseSeconds(s string) (int, error) {
	mins, secs, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidTime, "time %q is not in m:ss form", s)
	}
	m, err := parseComponent(mins)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidTime, err, "time %q has invalid minutes", s)
	}
	if m > maxMinutes {
		return 0, errors.New(errors.ErrCodeInvalidTime, "time %q has minutes out of range", s)
	}
	sec, err := parseComponent(secs)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidTime, err, "time %q has invalid seconds", s)
	}
	if sec >= 60 {
		return 0, errors.New(errors.ErrCodeInvalidTime, "time %q has seconds out of range", s)
	}
	return m*60 + sec, nil
}

func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.Atoi(s)
}

// FormatSeconds renders seconds as "m:ss" with two-digit seconds.
// Negative input is formatted with a leading minus sign.
func FormatSeconds(total int) string {
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}

// Timestamp maps elapsed seconds to an absolute instant on 1970-01-01 UTC.
func Timestamp(seconds int) time.Time {
	return epoch.Add(time.Duration(seconds) * time.Second)
}

// YearStart returns January 1st of year in UTC.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
