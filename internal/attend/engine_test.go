package attend

import (
	"reflect"
	"testing"
	"time"
)

// 2024-03-10 is a Sunday, so SUN is "today" and MON is "tomorrow".
var testDate = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

const testStudentID = int64(7)

func i64(v int64) *int64 { return &v }

func testBundle(day Weekday, usage ShuttleUsage, history []ShuttleRecord) LessonBundle {
	return LessonBundle{
		Lesson:              Lesson{ID: i64(1), Name: "soccer basics", SportName: "soccer"},
		Student:             Student{ID: testStudentID, Name: "kim"},
		LessonStudent:       LessonStudent{ID: i64(2), LessonID: i64(1)},
		LessonSchedule:      LessonSchedule{ID: i64(3), ScheduleDay: day, StartTime: "10:00", EndTime: "12:00"},
		LessonStudentDetail: LessonStudentDetail{ID: i64(4), ShuttleUsage: usage},
		ShuttleAttendance:   history,
	}
}

func TestComputeSubmissionSingleLessonNoHistory(t *testing.T) {
	lessons := []LessonBundle{testBundle(Sun, UsageNone, nil)}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, []Status{StatusWillAttend})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if len(sub.Payload) != 1 {
		t.Fatalf("payload length = %d, want 1", len(sub.Payload))
	}
	rec := sub.Payload[0]
	if rec.ID != nil {
		t.Errorf("new record carries id %d, want create mode", *rec.ID)
	}
	if rec.Status != StatusWillAttend {
		t.Errorf("status = %q, want %q", rec.Status, StatusWillAttend)
	}
	if rec.Type != UsageNone {
		t.Errorf("type = %q, want %q", rec.Type, UsageNone)
	}
	if sub.HasUnselected {
		t.Error("HasUnselected = true, want false")
	}
	if !sub.HasChanged {
		t.Error("HasChanged = false, want true")
	}
}

func TestComputeSubmissionBothSplitsPerType(t *testing.T) {
	history := []ShuttleRecord{
		{ID: 5, Type: UsageBoarding, Status: StatusWillAttend},
		{ID: 6, Type: UsageDrop, Status: StatusWillAttend},
	}
	lessons := []LessonBundle{testBundle(Sun, UsageBoth, history)}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, []Status{StatusWillAttend})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if len(sub.Payload) != 2 {
		t.Fatalf("payload length = %d, want 2", len(sub.Payload))
	}
	if sub.Payload[0].Type != UsageBoarding || sub.Payload[1].Type != UsageDrop {
		t.Fatalf("split order = %q,%q, want BOARDING,DROP", sub.Payload[0].Type, sub.Payload[1].Type)
	}
	if sub.Payload[0].ID == nil || *sub.Payload[0].ID != 5 {
		t.Errorf("boarding id = %v, want 5", sub.Payload[0].ID)
	}
	if sub.Payload[1].ID == nil || *sub.Payload[1].ID != 6 {
		t.Errorf("drop id = %v, want 6", sub.Payload[1].ID)
	}
	if sub.HasChanged {
		t.Error("HasChanged = true for a resubmission of the same statuses")
	}
}

func TestComputeSubmissionLatestByTypePicksNewest(t *testing.T) {
	history := []ShuttleRecord{
		{ID: 1, Type: UsageBoarding, Status: StatusWillAttend},
		{ID: 2, Type: UsageDrop, Status: StatusWillAttend},
		{ID: 3, Type: UsageBoarding, Status: StatusWillAbsent},
	}
	lessons := []LessonBundle{testBundle(Sun, UsageBoth, history)}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, []Status{StatusWillAttend})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if *sub.Payload[0].ID != 3 {
		t.Errorf("boarding id = %d, want 3 (last boarding entry)", *sub.Payload[0].ID)
	}
	if *sub.Payload[1].ID != 2 {
		t.Errorf("drop id = %d, want 2 (last drop entry)", *sub.Payload[1].ID)
	}
}

func TestComputeSubmissionBothWithPartialHistory(t *testing.T) {
	// Only a boarding record exists: the drop leg is created fresh.
	history := []ShuttleRecord{{ID: 9, Type: UsageBoarding, Status: StatusWillAttend}}
	lessons := []LessonBundle{testBundle(Sun, UsageBoth, history)}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, []Status{StatusWillAbsent})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if *sub.Payload[0].ID != 9 {
		t.Errorf("boarding id = %d, want 9", *sub.Payload[0].ID)
	}
	if sub.Payload[1].ID != nil {
		t.Errorf("drop id = %d, want create mode", *sub.Payload[1].ID)
	}
}

func TestComputeSubmissionSkipsUnresolvableBundles(t *testing.T) {
	broken := testBundle(Sun, UsageNone, nil)
	broken.LessonSchedule.ID = nil
	lessons := []LessonBundle{broken, testBundle(Mon, UsageNone, nil)}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, []Status{"", StatusWillAttend})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if len(sub.Payload) != 1 {
		t.Fatalf("payload length = %d, want 1", len(sub.Payload))
	}
	if sub.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", sub.Skipped)
	}
	// The broken bundle has no status either, but skipped bundles must not
	// trip the flags.
	if sub.HasUnselected {
		t.Error("HasUnselected set by a skipped bundle")
	}

	defaults, err := ComputeDefaults(testStudentID, testDate, lessons)
	if err != nil {
		t.Fatalf("ComputeDefaults: %v", err)
	}
	if len(defaults) != 1 {
		t.Fatalf("defaults length = %d, want 1", len(defaults))
	}
}

func TestComputeSubmissionNoOpDetection(t *testing.T) {
	history := []ShuttleRecord{{ID: 1, Type: UsageNone, Status: StatusWillAttend}}
	lessons := []LessonBundle{
		testBundle(Sun, UsageNone, history),
		testBundle(Mon, UsageNone, history),
	}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, []Status{StatusWillAttend, StatusWillAttend})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if sub.HasChanged {
		t.Error("HasChanged = true when every choice matches history")
	}

	sub, err = ComputeSubmission(testStudentID, testDate, lessons, []Status{StatusWillAttend, StatusWillAbsent})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if !sub.HasChanged {
		t.Error("HasChanged = false after changing one lesson")
	}
}

func TestComputeSubmissionUnselectedStillBuildsPayload(t *testing.T) {
	lessons := []LessonBundle{testBundle(Sun, UsageNone, nil)}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, []Status{""})
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if !sub.HasUnselected {
		t.Error("HasUnselected = false with no choice and no history")
	}
	if len(sub.Payload) != 1 {
		t.Fatalf("payload length = %d, want 1 (must not abort)", len(sub.Payload))
	}
	if sub.Payload[0].Status != "" {
		t.Errorf("status = %q, want unset", sub.Payload[0].Status)
	}
}

func TestComputeSubmissionFallsBackToLatestStatus(t *testing.T) {
	history := []ShuttleRecord{{ID: 4, Type: UsageNone, Status: StatusWillAbsent}}
	lessons := []LessonBundle{testBundle(Sun, UsageNone, history)}

	sub, err := ComputeSubmission(testStudentID, testDate, lessons, nil)
	if err != nil {
		t.Fatalf("ComputeSubmission: %v", err)
	}
	if sub.HasUnselected {
		t.Error("HasUnselected = true despite recorded history")
	}
	if sub.Payload[0].Status != StatusWillAbsent {
		t.Errorf("status = %q, want fallback %q", sub.Payload[0].Status, StatusWillAbsent)
	}
	if *sub.Payload[0].ID != 4 {
		t.Errorf("id = %d, want 4", *sub.Payload[0].ID)
	}
}

func TestComputeDefaultsPrefillsLatest(t *testing.T) {
	history := []ShuttleRecord{
		{ID: 1, Type: UsageBoarding, Status: StatusWillAttend},
		{ID: 2, Type: UsageDrop, Status: StatusWillAbsent},
	}
	lessons := []LessonBundle{testBundle(Mon, UsageBoth, history)}

	defaults, err := ComputeDefaults(testStudentID, testDate, lessons)
	if err != nil {
		t.Fatalf("ComputeDefaults: %v", err)
	}
	if len(defaults) != 1 {
		t.Fatalf("defaults length = %d, want 1 (prefill never splits)", len(defaults))
	}
	if defaults[0].Status != StatusWillAbsent {
		t.Errorf("prefill status = %q, want latest overall %q", defaults[0].Status, StatusWillAbsent)
	}
	if *defaults[0].ID != 2 {
		t.Errorf("prefill id = %d, want 2", *defaults[0].ID)
	}
	if defaults[0].Time != "2024-03-11" {
		t.Errorf("time = %q, want rolled-forward 2024-03-11", defaults[0].Time)
	}
}

func TestComputeDefaultsDeterministic(t *testing.T) {
	lessons := []LessonBundle{
		testBundle(Sun, UsageNone, []ShuttleRecord{{ID: 1, Type: UsageNone, Status: StatusAttend}}),
		testBundle(Mon, UsageBoth, nil),
	}

	first, err := ComputeDefaults(testStudentID, testDate, lessons)
	if err != nil {
		t.Fatalf("ComputeDefaults: %v", err)
	}
	second, err := ComputeDefaults(testStudentID, testDate, lessons)
	if err != nil {
		t.Fatalf("ComputeDefaults: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two identical invocations produced different defaults")
	}
}
