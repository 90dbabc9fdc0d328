package slot

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

func labels(d Day) []TimeLabel {
	out := make([]TimeLabel, len(d))
	for i, s := range d {
		out[i] = s.Label
	}
	return out
}

func TestFormatting(t *testing.T) {
	ts := at(2025, time.July, 9, 18, 0)

	if got := DateKeyOf(ts); got != "9_7_2025" {
		t.Fatalf("expected date key 9_7_2025, got %s", got)
	}
	if got := TimeLabelOf(ts); got != "06:00 PM" {
		t.Fatalf("expected label 06:00 PM, got %s", got)
	}
	if got := TimeLabelOf(at(2025, time.July, 9, 10, 30)); got != "10:30 AM" {
		t.Fatalf("expected label 10:30 AM, got %s", got)
	}
}

func TestNormalizeTimeLabel(t *testing.T) {
	cases := []struct {
		in       string
		expected TimeLabel
	}{
		{in: "06:00 PM", expected: "06:00 PM"},
		{in: "06:00 pm", expected: "06:00 PM"},
		{in: "6:00 pm", expected: "06:00 PM"},
		{in: " 10:30 am ", expected: "10:30 AM"},
		{in: "6:00PM", expected: "06:00 PM"},
		{in: "soon", expected: "SOON"},
	}

	for _, c := range cases {
		if got := NormalizeTimeLabel(c.in); got != c.expected {
			t.Errorf("NormalizeTimeLabel(%q): expected %q, got %q", c.in, c.expected, got)
		}
	}
}

func TestParseDateKey(t *testing.T) {
	d, m, y, err := ParseDateKey("9_7_2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 9 || m != 7 || y != 2025 {
		t.Fatalf("expected 9/7/2025, got %d/%d/%d", d, m, y)
	}

	for _, bad := range []DateKey{"", "9_7", "9_x_2025", "9_13_2025", "9_0_2025"} {
		if _, _, _, err := ParseDateKey(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestPlan_MorningStartsAtOpening(t *testing.T) {
	now := at(2025, time.July, 9, 9, 0)

	days := Plan(now, nil)
	if len(days) != PlanDays {
		t.Fatalf("expected %d days, got %d", PlanDays, len(days))
	}

	today := days[0]
	if len(today) != 22 {
		t.Fatalf("expected 22 slots today, got %d", len(today))
	}
	if today[0].Label != "10:00 AM" {
		t.Errorf("expected first slot 10:00 AM, got %s", today[0].Label)
	}
	if today[len(today)-1].Label != "08:30 PM" {
		t.Errorf("expected last slot 08:30 PM, got %s", today[len(today)-1].Label)
	}
	if today.Key() != "9_7_2025" {
		t.Errorf("expected key 9_7_2025, got %s", today.Key())
	}

	for i := 1; i < len(today); i++ {
		if today[i].Time.Sub(today[i-1].Time) != Step {
			t.Fatalf("slots %d and %d are not %s apart", i-1, i, Step)
		}
	}
}

func TestPlan_AfternoonRounding(t *testing.T) {
	cases := []struct {
		name  string
		now   time.Time
		first TimeLabel
	}{
		{name: "minute under half", now: at(2025, time.July, 9, 14, 20), first: "03:00 PM"},
		{name: "minute exactly half", now: at(2025, time.July, 9, 14, 30), first: "03:00 PM"},
		{name: "minute past half", now: at(2025, time.July, 9, 14, 31), first: "03:30 PM"},
		{name: "exactly ten", now: at(2025, time.July, 9, 10, 45), first: "10:30 AM"},
		{name: "eleven", now: at(2025, time.July, 9, 11, 5), first: "12:00 PM"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			days := Plan(c.now, nil)
			if len(days) == 0 {
				t.Fatal("expected at least one day")
			}
			if days[0].Key() != DateKeyOf(c.now) {
				t.Fatalf("expected first day to be today, got %s", days[0].Key())
			}
			if days[0][0].Label != c.first {
				t.Fatalf("expected first slot %s, got %s", c.first, days[0][0].Label)
			}
		})
	}
}

func TestPlan_LateEveningDropsToday(t *testing.T) {
	for _, now := range []time.Time{
		at(2025, time.July, 9, 20, 45),
		at(2025, time.July, 9, 20, 10),
		at(2025, time.July, 9, 22, 0),
		at(2025, time.July, 9, 23, 50),
	} {
		days := Plan(now, nil)
		if len(days) != PlanDays-1 {
			t.Fatalf("now=%s: expected %d days, got %d", now.Format(time.Kitchen), PlanDays-1, len(days))
		}
		if days[0].Key() != "10_7_2025" {
			t.Fatalf("now=%s: expected first day 10_7_2025, got %s", now.Format(time.Kitchen), days[0].Key())
		}
		if len(days[0]) != 22 {
			t.Fatalf("expected full next day, got %d slots", len(days[0]))
		}
	}
}

func TestPlan_LastHourLeavesOneSlot(t *testing.T) {
	days := Plan(at(2025, time.July, 9, 19, 15), nil)
	if got := labels(days[0]); !reflect.DeepEqual(got, []TimeLabel{"08:00 PM", "08:30 PM"}) {
		t.Fatalf("unexpected slots %v", got)
	}

	days = Plan(at(2025, time.July, 9, 19, 40), nil)
	if got := labels(days[0]); !reflect.DeepEqual(got, []TimeLabel{"08:30 PM"}) {
		t.Fatalf("unexpected slots %v", got)
	}
}

func TestPlan_SkipsBookedSlots(t *testing.T) {
	now := at(2025, time.July, 9, 9, 0)
	booked := Bookings{"9_7_2025": {"06:00 PM"}}

	today := Plan(now, booked)[0]
	if today.Contains("06:00 PM") {
		t.Fatal("booked slot 06:00 PM must not be offered")
	}
	if !today.Contains("05:30 PM") || !today.Contains("06:30 PM") {
		t.Fatal("neighbouring slots must remain available")
	}
	if len(today) != 21 {
		t.Fatalf("expected 21 slots, got %d", len(today))
	}
}

func TestPlan_BookedLabelsAreNormalized(t *testing.T) {
	now := at(2025, time.July, 9, 9, 0)
	booked := Bookings{"10_7_2025": {"6:00 pm"}}

	days := Plan(now, booked)
	if days[1].Contains("06:00 PM") {
		t.Fatal("lower-case unpadded booking must still block the slot")
	}
}

func TestPlan_FullyBookedDayIsOmitted(t *testing.T) {
	now := at(2025, time.July, 9, 9, 0)

	var all []TimeLabel
	for ts := at(2025, time.July, 10, 10, 0); ts.Before(at(2025, time.July, 10, 21, 0)); ts = ts.Add(Step) {
		all = append(all, TimeLabelOf(ts))
	}

	days := Plan(now, Bookings{"10_7_2025": all})
	if len(days) != PlanDays-1 {
		t.Fatalf("expected %d days, got %d", PlanDays-1, len(days))
	}
	for _, d := range days {
		if d.Key() == "10_7_2025" {
			t.Fatal("fully booked day must be omitted")
		}
	}
}

func TestPlan_MonthBoundary(t *testing.T) {
	days := Plan(at(2025, time.January, 29, 8, 0), nil)

	expected := []DateKey{"29_1_2025", "30_1_2025", "31_1_2025", "1_2_2025", "2_2_2025", "3_2_2025", "4_2_2025"}
	for i, d := range days {
		if d.Key() != expected[i] {
			t.Errorf("day %d: expected %s, got %s", i, expected[i], d.Key())
		}
	}
}

func TestPlan_DaylightSavingKeepsCalendarDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// clocks go forward on 9 March 2025
	now := time.Date(2025, time.March, 8, 9, 0, 0, 0, loc)
	days := Plan(now, nil)

	if len(days) != PlanDays {
		t.Fatalf("expected %d days, got %d", PlanDays, len(days))
	}
	for i, d := range days {
		if d[0].Label != "10:00 AM" {
			t.Errorf("day %d: expected first slot 10:00 AM, got %s", i, d[0].Label)
		}
		if len(d) != 22 {
			t.Errorf("day %d: expected 22 slots, got %d", i, len(d))
		}
	}
	if days[1].Key() != "9_3_2025" {
		t.Errorf("expected day 1 to be 9_3_2025, got %s", days[1].Key())
	}
}

func TestPlan_Deterministic(t *testing.T) {
	now := at(2025, time.July, 9, 14, 20)
	booked := Bookings{"9_7_2025": {"03:30 PM"}, "11_7_2025": {"10:00 AM", "10:30 AM"}}

	first := Plan(now, booked)
	second := Plan(now, booked)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Plan must return identical output for identical input")
	}
}

func TestDay_Weekday(t *testing.T) {
	days := Plan(at(2025, time.July, 9, 9, 0), nil)
	if days[0].Weekday() != "WED" {
		t.Fatalf("expected WED, got %s", days[0].Weekday())
	}
	if days[4].Weekday() != "SUN" {
		t.Fatalf("expected SUN, got %s", days[4].Weekday())
	}
}

func TestBookings_UnmarshalTolerant(t *testing.T) {
	payload := `{"9_7_2025":["06:00 PM", 7, "06:30 PM"], "10_7_2025": "06:00 PM", "11_7_2025": null, "12_7_2025": {"a": 1}}`

	var b Bookings
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := b["9_7_2025"]; !reflect.DeepEqual(got, []TimeLabel{"06:00 PM", "06:30 PM"}) {
		t.Errorf("unexpected labels for 9_7_2025: %v", got)
	}
	for _, k := range []DateKey{"10_7_2025", "11_7_2025", "12_7_2025"} {
		if b.IsBooked(k, "06:00 PM") {
			t.Errorf("malformed day %s must read as no bookings", k)
		}
	}

	var empty Bookings
	if err := json.Unmarshal([]byte(`"oops"`), &empty); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no bookings, got %v", empty)
	}
}
