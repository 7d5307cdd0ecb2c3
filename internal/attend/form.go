package attend

import (
	"errors"
	"fmt"
)

// FormChoice is one guardian selection, keyed by the enrollment id so a
// submission survives the lesson list shifting or reordering between the
// fetch the form was built from and the fetch it is reconciled against.
type FormChoice struct {
	LessonStudentID int64  `json:"lesson_student_id" binding:"required"`
	Status          Status `json:"status"`
}

// ErrStaleChoices means a choice references an enrollment that is not in the
// current lesson list: the list changed since the form was built, and
// applying the choices by position would assign them to the wrong lessons.
var ErrStaleChoices = errors.New("lesson list changed since the form was built")

// AlignChoices maps keyed choices onto the index-paired form slice
// ComputeSubmission expects, following the given lesson ordering. Lessons
// without a choice get an empty slot (the engine falls back to history or
// flags them unselected). A choice for an enrollment absent from lessons, or
// two choices for the same enrollment, is an error; never a silent shift.
func AlignChoices(lessons []LessonBundle, choices []FormChoice) ([]Status, error) {
	slot := make(map[int64]int, len(lessons))
	for i, b := range lessons {
		if b.LessonStudent.ID != nil {
			slot[*b.LessonStudent.ID] = i
		}
	}

	form := make([]Status, len(lessons))
	seen := make(map[int64]bool, len(choices))
	for _, c := range choices {
		if seen[c.LessonStudentID] {
			return nil, fmt.Errorf("duplicate choice for enrollment %d", c.LessonStudentID)
		}
		seen[c.LessonStudentID] = true
		i, ok := slot[c.LessonStudentID]
		if !ok {
			return nil, fmt.Errorf("%w: enrollment %d", ErrStaleChoices, c.LessonStudentID)
		}
		form[i] = c.Status
	}
	return form, nil
}
