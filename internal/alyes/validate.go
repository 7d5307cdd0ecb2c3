package alyes

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"onepass/internal/attend"
)

var validate = validator.New()

// ValidationError marks a backend payload that decoded but failed shape
// checks. Distinct from APIError so callers can log the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid backend payload: %s %s", e.Field, e.Reason)
}

// ValidateBundles shape-checks lesson bundles before they reach the
// reconciliation engine. Missing identifiers are NOT rejected here: the
// engine's skip policy owns those. This guards against values the engine has
// no defense for, like unknown enum spellings or malformed times.
func ValidateBundles(bundles []attend.LessonBundle) error {
	for i, b := range bundles {
		if err := validateBundle(b); err != nil {
			return fmt.Errorf("bundle %d: %w", i, err)
		}
	}
	return nil
}

func validateBundle(b attend.LessonBundle) error {
	if b.Student.ID <= 0 {
		return &ValidationError{Field: "student.id", Reason: "must be positive"}
	}
	if err := validate.Var(string(b.LessonSchedule.ScheduleDay), "omitempty,oneof=SUN MON TUE WED TUR FRI SAT"); err != nil {
		return &ValidationError{Field: "lessonSchedule.scheduleDay", Reason: "unknown day " + string(b.LessonSchedule.ScheduleDay)}
	}
	if err := validate.Var(b.LessonSchedule.StartTime, "omitempty,datetime=15:04"); err != nil {
		return &ValidationError{Field: "lessonSchedule.startTime", Reason: "not HH:mm"}
	}
	if err := validate.Var(b.LessonSchedule.EndTime, "omitempty,datetime=15:04"); err != nil {
		return &ValidationError{Field: "lessonSchedule.endTime", Reason: "not HH:mm"}
	}
	if err := validate.Var(string(b.LessonStudentDetail.ShuttleUsage), "omitempty,oneof=NONE BOARDING DROP BOTH"); err != nil {
		return &ValidationError{Field: "lessonStudentDetail.shuttleUsage", Reason: "unknown usage " + string(b.LessonStudentDetail.ShuttleUsage)}
	}
	for j, r := range b.ShuttleAttendance {
		if r.ID <= 0 {
			return &ValidationError{Field: fmt.Sprintf("shuttleAttendance[%d].id", j), Reason: "must be positive"}
		}
		// Stored records are never BOTH; that usage exists only on profiles.
		// An absent type is tolerated, the engine treats such rows as
		// typeless history.
		if err := validate.Var(string(r.Type), "omitempty,oneof=NONE BOARDING DROP"); err != nil {
			return &ValidationError{Field: fmt.Sprintf("shuttleAttendance[%d].type", j), Reason: "unknown type " + string(r.Type)}
		}
		if err := validate.Var(string(r.Status), "omitempty,oneof=WILL_ATTEND ATTEND WILL_ABSENT ABSENT"); err != nil {
			return &ValidationError{Field: fmt.Sprintf("shuttleAttendance[%d].status", j), Reason: "unknown status " + string(r.Status)}
		}
	}
	return nil
}

// ValidateStatus reports whether s is a selectable attendance status.
func ValidateStatus(s attend.Status) bool {
	return validate.Var(string(s), "oneof=WILL_ATTEND ATTEND WILL_ABSENT ABSENT") == nil
}
