package attend

import (
	"errors"
	"testing"
)

func TestAlignChoicesFollowsIdentifiersNotPositions(t *testing.T) {
	a := testBundle(Sun, UsageNone, nil)
	a.LessonStudent.ID = i64(10)
	b := testBundle(Mon, UsageNone, nil)
	b.LessonStudent.ID = i64(20)

	// The form was built from [a, b]; the fresh fetch returns [b, a].
	form, err := AlignChoices([]LessonBundle{b, a}, []FormChoice{
		{LessonStudentID: 10, Status: StatusWillAbsent},
		{LessonStudentID: 20, Status: StatusWillAttend},
	})
	if err != nil {
		t.Fatalf("AlignChoices: %v", err)
	}
	if form[0] != StatusWillAttend || form[1] != StatusWillAbsent {
		t.Errorf("form = %v, choices followed positions instead of enrollments", form)
	}
}

func TestAlignChoicesRejectsDroppedLesson(t *testing.T) {
	// The form was built while a today-lesson was still upcoming; by submit
	// time its start has passed and only the other lesson remains. The
	// guardian's choice for the dropped lesson must fail the batch, not land
	// on the survivor.
	a := testBundle(Sun, UsageNone, nil)
	a.LessonStudent.ID = i64(10)
	b := testBundle(Mon, UsageNone, nil)
	b.LessonStudent.ID = i64(20)

	_, err := AlignChoices([]LessonBundle{b}, []FormChoice{
		{LessonStudentID: 10, Status: StatusAbsent},
		{LessonStudentID: 20, Status: ""},
	})
	if !errors.Is(err, ErrStaleChoices) {
		t.Fatalf("err = %v, want ErrStaleChoices", err)
	}
}

func TestAlignChoicesRejectsDuplicates(t *testing.T) {
	a := testBundle(Sun, UsageNone, nil)
	a.LessonStudent.ID = i64(10)

	_, err := AlignChoices([]LessonBundle{a}, []FormChoice{
		{LessonStudentID: 10, Status: StatusWillAttend},
		{LessonStudentID: 10, Status: StatusWillAbsent},
	})
	if err == nil {
		t.Fatal("duplicate enrollment accepted")
	}
}

func TestAlignChoicesLeavesUnchosenLessonsEmpty(t *testing.T) {
	a := testBundle(Sun, UsageNone, nil)
	a.LessonStudent.ID = i64(10)
	b := testBundle(Mon, UsageNone, nil)
	b.LessonStudent.ID = i64(20)
	unresolvable := testBundle(Mon, UsageNone, nil)
	unresolvable.LessonStudent.ID = nil

	form, err := AlignChoices([]LessonBundle{a, unresolvable, b}, []FormChoice{
		{LessonStudentID: 20, Status: StatusAttend},
	})
	if err != nil {
		t.Fatalf("AlignChoices: %v", err)
	}
	if form[0] != "" || form[1] != "" || form[2] != StatusAttend {
		t.Errorf("form = %v", form)
	}
}
