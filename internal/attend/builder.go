package attend

import (
	"errors"
	"fmt"
	"time"
)

// boardingOrderDefault is a sentinel: shuttle seat ordering is not assigned
// on this side yet, the backend expects 999 until it is.
const boardingOrderDefault = 999

// dateLayout is the wire format for the record's service date.
const dateLayout = "2006-01-02"

// ErrMissingIdentifiers means the builder was handed a bundle whose foreign
// keys were never resolved. Orchestration filters those out first, so hitting
// this is a programming error, not bad user input.
var ErrMissingIdentifiers = errors.New("lesson identifiers missing")

// buildSpec carries the per-record knobs the engine varies between calls.
type buildSpec struct {
	status     Status
	existingID *int64
	override   ShuttleUsage
}

// buildRecord produces one upsert row for a lesson occurrence. The record's
// service date is the given date when the lesson runs today, date+1 when it
// runs tomorrow; any other schedule day is a data inconsistency and fails
// loudly, because such a lesson should never have reached the builder.
func buildRecord(b LessonBundle, ids *Identifiers, studentID int64, date time.Time, spec buildSpec) (Record, error) {
	if ids == nil {
		return Record{}, ErrMissingIdentifiers
	}

	day := b.LessonSchedule.ScheduleDay
	var serviceDate time.Time
	switch day {
	case WeekdayOf(date):
		serviceDate = date
	case WeekdayOf(date.AddDate(0, 0, 1)):
		serviceDate = date.AddDate(0, 0, 1)
	default:
		return Record{}, fmt.Errorf("lesson %d scheduled on %s, outside the window of %s", ids.LessonID, day, date.Format(dateLayout))
	}

	usage := spec.override
	if usage == "" {
		usage = b.LessonStudentDetail.ShuttleUsage
	}
	if usage == "" {
		usage = UsageNone
	}

	return Record{
		ID:                    spec.existingID,
		Type:                  usage,
		StudentID:             studentID,
		LessonID:              ids.LessonID,
		LessonStudentID:       ids.LessonStudentID,
		LessonScheduleID:      ids.LessonScheduleID,
		LessonStudentDetailID: ids.LessonStudentDetailID,
		Time:                  serviceDate.Format(dateLayout),
		Status:                spec.status,
		BoardingOrder:         boardingOrderDefault,
	}, nil
}
