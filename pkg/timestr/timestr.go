// Package timestr parses Robot Framework time strings.
//
// Three formats are accepted:
//   - numbers, read as seconds: "2", "1.5", "-0.5"
//   - time strings: "1 min 30 s", "1h10m", "100 milliseconds", "2 days"
//   - timer strings: "01:02:03", "00:00:01.500", "-00:01"
package timestr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrEmpty is returned for blank input.
var ErrEmpty = errors.New("empty time string")

var (
	timerRe     = regexp.MustCompile(`^([+-])?(?:(\d+):)?(\d+):(\d+)(\.\d+)?$`)
	componentRe = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+)([a-zμ]+)`)
)

var units = map[string]time.Duration{
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"ms": time.Millisecond, "millis": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"us": time.Microsecond, "μs": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
	"ns": time.Nanosecond, "nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
}

// Parse converts s to a duration.
func Parse(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, ErrEmpty
	}

	if secs, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Seconds(secs)
	}
	if d, ok := parseTimer(trimmed); ok {
		return d, nil
	}
	d, err := parseTimeString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid time string %q: %w", s, err)
	}
	return d, nil
}

// Seconds converts a number of seconds to a duration, rejecting values that
// are not finite or do not fit.
func Seconds(secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("invalid time value %v", secs)
	}
	ns := secs * float64(time.Second)
	if ns > math.MaxInt64 || ns < math.MinInt64 {
		return 0, fmt.Errorf("time value %v out of range", secs)
	}
	return time.Duration(math.Round(ns)), nil
}

func parseTimer(s string) (time.Duration, bool) {
	m := timerRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	var d time.Duration
	if m[2] != "" {
		h, _ := strconv.Atoi(m[2])
		d += time.Duration(h) * time.Hour
	}
	mins, _ := strconv.Atoi(m[3])
	secs, _ := strconv.Atoi(m[4])
	d += time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second
	if m[5] != "" {
		frac, _ := strconv.ParseFloat("0"+m[5], 64)
		d += time.Duration(math.Round(frac * float64(time.Second)))
	}
	if m[1] == "-" {
		d = -d
	}
	return d, true
}

func parseTimeString(s string) (time.Duration, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(s), ""))
	negative := false
	switch {
	case strings.HasPrefix(normalized, "-"):
		negative = true
		normalized = normalized[1:]
	case strings.HasPrefix(normalized, "+"):
		normalized = normalized[1:]
	}
	if normalized == "" {
		return 0, ErrEmpty
	}

	var total time.Duration
	consumed := 0
	for _, loc := range componentRe.FindAllStringSubmatchIndex(normalized, -1) {
		if loc[0] != consumed {
			return 0, fmt.Errorf("unexpected %q", normalized[consumed:loc[0]])
		}
		value, err := strconv.ParseFloat(normalized[loc[2]:loc[3]], 64)
		if err != nil {
			return 0, err
		}
		unit, ok := units[normalized[loc[4]:loc[5]]]
		if !ok {
			return 0, fmt.Errorf("unknown time unit %q", normalized[loc[4]:loc[5]])
		}
		total += time.Duration(math.Round(value * float64(unit)))
		consumed = loc[1]
	}
	if consumed != len(normalized) {
		return 0, fmt.Errorf("unexpected %q", normalized[consumed:])
	}
	if negative {
		total = -total
	}
	return total, nil
}
