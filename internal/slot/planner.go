package slot

import (
	"time"
)

const (
	// PlanDays is the length of the rolling booking window, today included.
	PlanDays = 7
	// OpeningHour is where every day after today starts, and the floor for today.
	OpeningHour = 10
	// ClosingHour ends each day's window (exclusive).
	ClosingHour = 21
	// Step is the slot length.
	Step = 30 * time.Minute
)

var weekdays = [...]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// Slot is a bookable instant and its label.
type Slot struct {
	Time  time.Time `json:"datetime"`
	Label TimeLabel `json:"time"`
}

func (s Slot) DateKey() DateKey {
	return DateKeyOf(s.Time)
}

// Day is the ordered list of free slots for one calendar day. Plan never
// returns an empty Day.
type Day []Slot

// Date is the instant of the first slot of the day.
func (d Day) Date() time.Time {
	if len(d) == 0 {
		return time.Time{}
	}
	return d[0].Time
}

func (d Day) Key() DateKey {
	return DateKeyOf(d.Date())
}

// Weekday returns the upper-case three letter day name shown on day chips.
func (d Day) Weekday() string {
	return weekdays[d.Date().Weekday()]
}

// Contains reports whether label is one of the day's free slots.
func (d Day) Contains(label TimeLabel) bool {
	for _, s := range d {
		if s.Label == label {
			return true
		}
	}
	return false
}

// Window returns the [start, end) range scanned for day offset i relative to now.
//
// Today starts at the next hour when it is past 10 o'clock (10:00 otherwise),
// at minute 30 when the current minute is past 30 and minute 0 otherwise. Later
// days start at 10:00. All days end at 21:00.
func Window(now time.Time, i int) (start, end time.Time) {
	loc := now.Location()
	y, m, d := now.Date()

	end = time.Date(y, m, d+i, ClosingHour, 0, 0, 0, loc)

	if i == 0 {
		hour := OpeningHour
		if now.Hour() > OpeningHour {
			hour = now.Hour() + 1
		}
		minute := 0
		if now.Minute() > 30 {
			minute = 30
		}
		// an hour of 24 rolls over to tomorrow, which leaves today empty
		start = time.Date(y, m, d, hour, minute, 0, 0, loc)
		return start, end
	}

	start = time.Date(y, m, d+i, OpeningHour, 0, 0, 0, loc)
	return start, end
}

// Plan enumerates the free slots of the next PlanDays days, today first.
// Days without a free slot are left out. The result only depends on now and
// booked.
func Plan(now time.Time, booked Bookings) []Day {
	days := make([]Day, 0, PlanDays)

	for i := 0; i < PlanDays; i++ {
		start, end := Window(now, i)

		var day Day
		for t := start; t.Before(end); t = t.Add(Step) {
			label := TimeLabelOf(t)
			if booked.IsBooked(DateKeyOf(t), label) {
				continue
			}
			day = append(day, Slot{Time: t, Label: label})
		}

		if len(day) > 0 {
			days = append(days, day)
		}
	}

	return days
}
