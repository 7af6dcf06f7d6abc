package domain

import "time"

// MaxInstances caps how many concrete trips a single repeat rule may expand to.
const MaxInstances = 366

// Expand turns a trip template into its ordered list of concrete instances.
//
// Instance k departs at anchor + k intervals and keeps the template's
// duration. Monthly steps are computed from the anchor and clamped to the
// last day of the target month, so Jan 31 yields Feb 28/29 and then Mar 31.
// The last instance is the last one whose FromDate is not after EndRepeat.
// A RepeatNone template yields exactly one instance.
//
// Expand is pure: the same template always yields the same slice.
func Expand(template Trip) ([]Trip, error) {
	if template.Repeat == "" {
		template.Repeat = RepeatNone
	}
	if template.Repeat == RepeatNone {
		template.EndRepeat = nil
		return []Trip{template}, nil
	}
	if !template.Repeat.Valid() {
		return nil, recurrenceError("repeat", "must be one of no, daily, weekly, monthly")
	}
	if template.EndRepeat == nil {
		return nil, recurrenceError("end_repeat", "is required when repeat is "+string(template.Repeat))
	}

	end := *template.EndRepeat
	if advance(template.FromDate, template.Repeat, 1).After(end) {
		return nil, recurrenceError("end_repeat", "must allow at least one repetition")
	}

	duration := template.ToDate.Sub(template.FromDate)
	out := make([]Trip, 0, 8)
	for k := 0; ; k++ {
		from := advance(template.FromDate, template.Repeat, k)
		if from.After(end) {
			break
		}
		if k >= MaxInstances {
			return nil, recurrenceError("end_repeat", "expands to more than 366 trips")
		}
		inst := template
		inst.FromDate = from
		inst.ToDate = from.Add(duration)
		out = append(out, inst)
	}
	return out, nil
}

// advance returns anchor moved forward by k steps of rule r.
func advance(anchor time.Time, r Repeat, k int) time.Time {
	switch r {
	case RepeatDaily:
		return anchor.AddDate(0, 0, k)
	case RepeatWeekly:
		return anchor.AddDate(0, 0, 7*k)
	case RepeatMonthly:
		return addMonthsClamped(anchor, k)
	}
	return anchor
}

// addMonthsClamped adds n calendar months, clamping the day of month instead
// of letting time.AddDate roll over into the following month.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func recurrenceError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason, Err: ErrInvalidRecurrence}
}
