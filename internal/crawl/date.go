package crawl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	// Embeds the IANA tzdata database so time.LoadLocation resolves named
	// zones (e.g. Asia/Shanghai) even on minimal container images that ship
	// without /usr/share/zoneinfo — the Go-idiomatic equivalent of Python's
	// zoneinfo package.
	_ "time/tzdata"
)

// DateWindow is an inclusive local-date range evaluated in a fixed IANA
// timezone.
type DateWindow struct {
	Start    time.Time
	End      time.Time
	Timezone string
}

// ParseCLIDate parses the CLI's YYYY_M_D date format (no leading-zero
// padding required), e.g. "2021_9_1".
func ParseCLIDate(raw string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(raw), "_")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date format %q, expected YYYY_M_D", raw)
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	day, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q, expected YYYY_M_D", raw)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// ToLocalDate projects a UTC instant into the given IANA timezone and
// returns its calendar date there.
func ToLocalDate(tsUTC time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	local := tsUTC.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// InDateRange reports whether tsUTC's local calendar date, in the given
// timezone, falls within [start, end] inclusive.
func InDateRange(tsUTC, start, end time.Time, timezone string) (bool, error) {
	localDay, err := ToLocalDate(tsUTC, timezone)
	if err != nil {
		return false, err
	}
	return !localDay.Before(start) && !localDay.After(end), nil
}
