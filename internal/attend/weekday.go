package attend

import "time"

// weekdayByTimeDay maps time.Weekday (Sunday = 0) to the backend enum.
var weekdayByTimeDay = [7]Weekday{Sun, Mon, Tue, Wed, Tur, Fri, Sat}

// WeekdayOf converts a date to the backend's schedule-day enum.
func WeekdayOf(t time.Time) Weekday {
	return weekdayByTimeDay[int(t.Weekday())]
}

// FilterUpcoming keeps the bundles a guardian can still answer for: all of
// tomorrow's lessons, and today's lessons whose start time has not passed.
// now is the current clock in HH:mm; start times compare lexically.
func FilterUpcoming(lessons []LessonBundle, date time.Time, now string) []LessonBundle {
	today := WeekdayOf(date)
	tomorrow := WeekdayOf(date.AddDate(0, 0, 1))
	out := make([]LessonBundle, 0, len(lessons))
	for _, b := range lessons {
		day := b.LessonSchedule.ScheduleDay
		if day == tomorrow || (day == today && b.LessonSchedule.StartTime >= now) {
			out = append(out, b)
		}
	}
	return out
}
