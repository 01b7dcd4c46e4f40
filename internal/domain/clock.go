package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ClockTime is a wall-clock time of day in minutes after midnight [0, 1440).
type ClockTime int

// NewClockTime builds a ClockTime from a 24-hour hour and minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime((hour*60 + minute) % minutesPerDay)
}

// ParseClockTime accepts "H:MM AM/PM", "HH:MM AM/PM" and 24-hour "HH:MM".
// An hour above 12 with a PM suffix ("18:00 PM") is read as 24-hour time.
func ParseClockTime(s string) (ClockTime, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("parse clock time: empty value")
	}

	period := ""
	switch {
	case strings.HasSuffix(raw, "AM"):
		period = "AM"
	case strings.HasSuffix(raw, "PM"):
		period = "PM"
	}
	clock := strings.TrimSpace(strings.TrimSuffix(raw, period))

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("parse clock time %q: expected H:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: invalid hour", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("parse clock time %q: invalid minute", s)
	}

	switch {
	case period == "" || hour > 12:
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("parse clock time %q: hour out of range", s)
		}
	case hour < 1:
		return 0, fmt.Errorf("parse clock time %q: hour out of range", s)
	case period == "AM" && hour == 12:
		hour = 0
	case period == "PM" && hour != 12:
		hour += 12
	}

	return NewClockTime(hour, minute), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// AddHours returns the time of day h hours later and the number of midnights crossed.
func (c ClockTime) AddHours(h float64) (ClockTime, int) {
	total := int(c) + int(h*60+0.5)
	days := total / minutesPerDay
	rem := total % minutesPerDay
	if rem < 0 {
		rem += minutesPerDay
		days--
	}
	return ClockTime(rem), days
}

// HoursUntil returns the hours from c forward to other on the same day.
// The result is negative when other is earlier than c.
func (c ClockTime) HoursUntil(other ClockTime) float64 {
	return float64(int(other)-int(c)) / 60
}

// String formats as "H:MM AM/PM".
func (c ClockTime) String() string {
	h := c.Hour()
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, c.Minute(), period)
}
