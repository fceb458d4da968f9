package ratelimit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Limit is a request budget per period, e.g. 5 per 1 minute.
type Limit struct {
	Count  int
	Period time.Duration

	// amount and unit keep the textual form for messages.
	amount int
	unit   string
}

var limitRe = regexp.MustCompile(`^(\d+)\s*(?:/|per)\s*(\d+)?\s*(second|minute|hour|day)s?$`)

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseLimit parses expressions like "5/minute", "5 per minute" or "100 per 2 hours".
func ParseLimit(s string) (Limit, error) {
	m := limitRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Limit{}, fmt.Errorf("invalid rate limit %q", s)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil || count <= 0 {
		return Limit{}, fmt.Errorf("invalid rate limit %q: count must be positive", s)
	}

	amount := 1
	if m[2] != "" {
		amount, err = strconv.Atoi(m[2])
		if err != nil || amount <= 0 {
			return Limit{}, fmt.Errorf("invalid rate limit %q: period must be positive", s)
		}
	}

	return Limit{
		Count:  count,
		Period: time.Duration(amount) * units[m[3]],
		amount: amount,
		unit:   m[3],
	}, nil
}

// MustParseLimit is ParseLimit for constants and tests.
func MustParseLimit(s string) Limit {
	l, err := ParseLimit(s)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Limit) String() string {
	if l.unit == "" {
		return fmt.Sprintf("%d per %s", l.Count, l.Period)
	}
	return fmt.Sprintf("%d per %d %s", l.Count, l.amount, l.unit)
}
