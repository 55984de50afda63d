package agent

import (
	"strings"
	"testing"
	"time"
)

func TestBuildContextDates(t *testing.T) {
	// Wednesday, 24 December 2025, 10:00 IST.
	now := time.Date(2025, 12, 24, 10, 0, 0, 0, IST)

	got := BuildContext("+919876543210", "", nil, now)

	for _, want := range []string{
		"Today is Wednesday, 24 December 2025",
		"Tomorrow is Thursday, 25 December 2025",
		"Day after tomorrow is Friday, 26 December 2025",
		"Next weekend is Saturday, 27 December 2025 and Sunday, 28 December 2025",
		"CRITICAL DATE RULES",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q", want)
		}
	}
}

func TestBuildContextConvertsToIST(t *testing.T) {
	// 22:00 UTC on the 24th is already the 25th in IST.
	now := time.Date(2025, 12, 24, 22, 0, 0, 0, time.UTC)

	got := BuildContext("+919876543210", "", nil, now)
	if !strings.Contains(got, "Today is Thursday, 25 December 2025") {
		t.Error("context should anchor dates in IST")
	}
}

func TestDaysUntilSaturday(t *testing.T) {
	tests := []struct {
		day  time.Time
		want int
	}{
		{time.Date(2025, 12, 22, 12, 0, 0, 0, IST), 5}, // Monday
		{time.Date(2025, 12, 24, 12, 0, 0, 0, IST), 3}, // Wednesday
		{time.Date(2025, 12, 26, 12, 0, 0, 0, IST), 1}, // Friday
		{time.Date(2025, 12, 27, 12, 0, 0, 0, IST), 7}, // Saturday rolls to next week
		{time.Date(2025, 12, 28, 12, 0, 0, 0, IST), 6}, // Sunday
	}

	for _, tt := range tests {
		if got := daysUntilSaturday(tt.day); got != tt.want {
			t.Errorf("daysUntilSaturday(%s) = %d, want %d", tt.day.Weekday(), got, tt.want)
		}
	}
}

func TestBuildContextFacts(t *testing.T) {
	now := time.Date(2025, 12, 24, 10, 0, 0, 0, IST)
	facts := map[string]string{"name": "Anita", "phone": "+919812345678"}

	got := BuildContext("+919876543210", "anita.r", facts, now)

	for _, want := range []string{
		"WhatsApp number: +919876543210",
		"WhatsApp profile name: anita.r",
		"Confirmed name: Anita",
		"Confirmed contact number: +919812345678",
		"Do not ask for it again",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q", want)
		}
	}
}

func TestBuildContextAsksToConfirmProfileName(t *testing.T) {
	now := time.Date(2025, 12, 24, 10, 0, 0, 0, IST)

	got := BuildContext("+919876543210", "anita.r", nil, now)
	if !strings.Contains(got, "ask the guest to confirm it") {
		t.Error("context should tell the planner to confirm the profile name")
	}

	got = BuildContext("+919876543210", "", nil, now)
	if !strings.Contains(got, "Ask for the guest's name") {
		t.Error("context should tell the planner to ask for a name")
	}
}
