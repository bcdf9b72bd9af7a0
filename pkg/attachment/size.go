package attachment

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var fileSizePattern = regexp.MustCompile(`(?i)^(\d*\.?\d+)(?:([KMGT])(?:I?B)?|B?)$`)

var unitRanks = map[string]float64{
	"K": 1,
	"M": 2,
	"G": 3,
	"T": 4,
}

// ParseSize converts strings such as "2MB", "512k", "1.5GiB" or "10" into a
// byte count. Units are binary multiples of 1024 and case-insensitive; a
// missing unit letter means kibibytes. The result is rounded to the nearest
// byte. Sizes of 8 EiB or more are rejected.
func ParseSize(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	matches := fileSizePattern.FindStringSubmatch(trimmed)
	if matches == nil {
		return 0, fmt.Errorf("attachment: malformed size %q", raw)
	}
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("attachment: malformed size %q: %w", raw, err)
	}
	unit := strings.ToUpper(matches[2])
	if unit == "" {
		unit = "K"
	}
	bytes := math.Round(value * math.Pow(1024, unitRanks[unit]))
	// float64(math.MaxInt64) rounds up to 2^63, which no int64 holds.
	if bytes >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("attachment: size %q overflows int64", raw)
	}
	return int64(bytes), nil
}
