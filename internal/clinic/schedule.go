package clinic

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayoutISO = "2006-01-02"
	dateLayoutUS  = "01/02/2006"
	timeLayout    = "15:04:05"
)

// Block is one bookable window of a clinic day. Start and End are wall-clock
// times in HH:MM:SS form.
type Block struct {
	Start string
	End   string
}

// Schedule is the immutable set of bookable blocks for a clinic day, together
// with the civil time zone in which "past" is evaluated. The clinic operates
// on a fixed UTC+8 offset regardless of server locale.
type Schedule struct {
	Blocks   []Block
	Location *time.Location
}

// DefaultSchedule returns the standard clinic day: four 2-hour blocks with an
// unbooked lunch gap, evaluated in fixed UTC+8.
func DefaultSchedule() Schedule {
	return Schedule{
		Blocks: []Block{
			{Start: "08:00:00", End: "10:00:00"},
			{Start: "10:00:00", End: "12:00:00"},
			{Start: "13:00:00", End: "15:00:00"},
			{Start: "15:00:00", End: "17:00:00"},
		},
		Location: time.FixedZone("UTC+8", 8*60*60),
	}
}

// BlockFor returns the block whose start matches exactly. No rounding or
// nearest-block snapping.
func (s Schedule) BlockFor(start string) (Block, bool) {
	for _, b := range s.Blocks {
		if b.Start == start {
			return b, true
		}
	}
	return Block{}, false
}

// EndInstant converts a block's end wall-clock time on the given civil date
// into an instant in the schedule's zone.
func (s Schedule) EndInstant(date time.Time, b Block) time.Time {
	end, err := time.Parse(timeLayout, b.End)
	if err != nil {
		// Blocks are construction-time constants; an unparsable end is a
		// programming error.
		panic(fmt.Sprintf("schedule: bad block end %q: %v", b.End, err))
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, end.Hour(), end.Minute(), end.Second(), 0, s.Location)
}

// Past reports whether the block has fully elapsed on the given date as of
// now. A block is past once its end instant is at or before now.
func (s Schedule) Past(date time.Time, b Block, now time.Time) bool {
	return !s.EndInstant(date, b).After(now)
}

// ParseDate normalizes a caller-supplied calendar date. ISO YYYY-MM-DD and
// US MM/DD/YYYY are both accepted.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(dateLayoutISO, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayoutUS, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", raw)
}

// FormatDate renders a civil date in ISO form.
func FormatDate(t time.Time) string {
	return t.Format(dateLayoutISO)
}

// NormalizeTime converts a caller-supplied time of day into HH:MM:SS.
// Accepted inputs: 24-hour HH:MM or HH:MM:SS, and 12-hour H:MM AM/PM.
func NormalizeTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty time")
	}
	for _, layout := range []string{timeLayout, "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(timeLayout), nil
		}
	}
	upper := strings.ToUpper(raw)
	for _, layout := range []string{"3:04 PM", "3:04PM", "3:04:05 PM"} {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format(timeLayout), nil
		}
	}
	return "", fmt.Errorf("unparsable time %q", raw)
}
