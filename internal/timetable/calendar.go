package timetable

import "time"

// SessionDays enumerates the working days of a session: every occurrence of
// the teaching weekday inside the inclusive [start, end] date range, in
// chronological order. The position of a day in the returned slice is the
// stable day index used by assignments and the daily-schedule mirror.
func SessionDays(start, end time.Time, weekday time.Weekday) []time.Time {
	start = truncateToDate(start)
	end = truncateToDate(end)
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == weekday {
			days = append(days, d)
		}
	}
	return days
}

// ParseSessionDays is SessionDays over ISO "2006-01-02" date strings.
func ParseSessionDays(startDate, endDate string, weekday time.Weekday) ([]time.Time, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, err
	}
	return SessionDays(start, end, weekday), nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
