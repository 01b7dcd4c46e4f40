package domain

import "testing"

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in   string
		want ClockTime
	}{
		{"9:00 AM", NewClockTime(9, 0)},
		{"09:00 AM", NewClockTime(9, 0)},
		{"12:00 PM", NewClockTime(12, 0)},
		{"12:30 AM", NewClockTime(0, 30)},
		{"6:15 pm", NewClockTime(18, 15)},
		{"18:00 PM", NewClockTime(18, 0)},
		{"21:45", NewClockTime(21, 45)},
	}

	for _, tt := range tests {
		got, err := ParseClockTime(tt.in)
		if err != nil {
			t.Errorf("ParseClockTime(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClockTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseClockTimeRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "noon", "9 AM", "9:5 AM", "25:00", "0:00 PM", "9:60 AM"} {
		if _, err := ParseClockTime(in); err == nil {
			t.Errorf("ParseClockTime(%q) expected error", in)
		}
	}
}

func TestClockTimeStringAndAdd(t *testing.T) {
	c := NewClockTime(21, 0)
	if c.String() != "9:00 PM" {
		t.Fatalf("String() = %q, want 9:00 PM", c.String())
	}

	next, days := c.AddHours(4.5)
	if next != NewClockTime(1, 30) || days != 1 {
		t.Fatalf("AddHours(4.5) = %v (+%d), want 1:30 AM (+1)", next, days)
	}

	if got := NewClockTime(9, 0).HoursUntil(NewClockTime(12, 0)); got != 3 {
		t.Fatalf("HoursUntil = %v, want 3", got)
	}
	if got := NewClockTime(9, 0).HoursUntil(NewClockTime(8, 0)); got != -1 {
		t.Fatalf("HoursUntil = %v, want -1", got)
	}
}
