package slot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLabelLayout renders "06:00 PM": zero padded 12 hour clock, upper case suffix.
const timeLabelLayout = "03:04 PM"

var ErrInvalidDateKey = errors.New("invalid date key")

// DateKey identifies a calendar day as "day_month_year" without zero padding,
// e.g. "9_7_2025".
type DateKey string

// TimeLabel identifies a slot within a day, e.g. "06:00 PM".
type TimeLabel string

func DateKeyOf(t time.Time) DateKey {
	return DateKey(fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year()))
}

func TimeLabelOf(t time.Time) TimeLabel {
	return TimeLabel(t.Format(timeLabelLayout))
}

// ParseDateKey splits a DateKey into its calendar components.
func ParseDateKey(k DateKey) (day, month, year int, err error) {
	parts := strings.Split(string(k), "_")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidDateKey, k)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidDateKey, k)
		}
		nums[i] = n
	}

	if nums[1] < 1 || nums[1] > 12 {
		return 0, 0, 0, fmt.Errorf("%w: month out of range in %q", ErrInvalidDateKey, k)
	}

	return nums[0], nums[1], nums[2], nil
}

// NormalizeTimeLabel brings user or server supplied labels to the canonical
// form. Input that does not parse as a clock time is only trimmed and upper-cased.
func NormalizeTimeLabel(s string) TimeLabel {
	up := strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range []string{timeLabelLayout, "3:04 PM", "3:04PM", "03:04PM"} {
		if t, err := time.Parse(layout, up); err == nil {
			return TimeLabelOf(t)
		}
	}
	return TimeLabel(up)
}

// Bookings maps a day to the labels already taken on it.
type Bookings map[DateKey][]TimeLabel

// IsBooked reports whether label is taken on day.
func (b Bookings) IsBooked(day DateKey, label TimeLabel) bool {
	want := NormalizeTimeLabel(string(label))
	for _, l := range b[day] {
		if NormalizeTimeLabel(string(l)) == want {
			return true
		}
	}
	return false
}

// UnmarshalJSON tolerates malformed days: a value that is not an array is
// read as no bookings for that day, and non-string members are dropped.
func (b *Bookings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// null or a non-object payload means nothing is booked
		*b = Bookings{}
		return nil
	}

	out := make(Bookings, len(raw))
	for key, value := range raw {
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			continue
		}

		labels := make([]TimeLabel, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				continue
			}
			labels = append(labels, TimeLabel(s))
		}
		out[DateKey(key)] = labels
	}

	*b = out
	return nil
}
