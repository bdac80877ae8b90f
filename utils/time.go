package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var unitTimestamp = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// FormatDuration renders a duration as MM:SS, or H:MM:SS once it reaches an hour.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ParseTimestamp accepts "90", "1:30", "1:02:03" or "1h2m3s" and returns seconds.
func ParseTimestamp(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidTimestamp
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, ErrInvalidTimestamp
		}
		total := 0
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, ErrInvalidTimestamp
			}
			total = total*60 + n
		}
		return total, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, ErrInvalidTimestamp
		}
		return n, nil
	}

	m := unitTimestamp.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidTimestamp
	}
	total := 0
	for i, mul := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		total += n * mul
	}
	return total, nil
}
