package attend

// ResolveIdentifiers extracts the four foreign keys an attendance record
// needs from a bundle. The lesson id falls back from the enrollment's
// lessonId to the lesson's own id. Returns nil when any key is missing:
// bundles without a full identifier set (e.g. not yet scheduled) are expected
// and get skipped by callers rather than treated as errors.
func ResolveIdentifiers(b LessonBundle) *Identifiers {
	lessonID := b.LessonStudent.LessonID
	if lessonID == nil {
		lessonID = b.Lesson.ID
	}
	if lessonID == nil || b.LessonStudent.ID == nil ||
		b.LessonSchedule.ID == nil || b.LessonStudentDetail.ID == nil {
		return nil
	}
	return &Identifiers{
		LessonID:              *lessonID,
		LessonStudentID:       *b.LessonStudent.ID,
		LessonScheduleID:      *b.LessonSchedule.ID,
		LessonStudentDetailID: *b.LessonStudentDetail.ID,
	}
}

// LatestWhere scans backward and returns the last record matching pred,
// or nil. Slice order is the recency authority: the backend appends records
// in insertion order, and this package relies on that precondition instead
// of comparing timestamps.
func LatestWhere(list []ShuttleRecord, pred func(ShuttleRecord) bool) *ShuttleRecord {
	for i := len(list) - 1; i >= 0; i-- {
		if pred(list[i]) {
			return &list[i]
		}
	}
	return nil
}

// latest returns the most recent record of any type.
func latest(list []ShuttleRecord) *ShuttleRecord {
	if len(list) == 0 {
		return nil
	}
	return &list[len(list)-1]
}

// latestPair returns the most recent BOARDING and DROP records independently,
// scanning backward once and stopping as soon as both are found.
func latestPair(list []ShuttleRecord) (boarding, drop *ShuttleRecord) {
	for i := len(list) - 1; i >= 0; i-- {
		switch list[i].Type {
		case UsageBoarding:
			if boarding == nil {
				boarding = &list[i]
			}
		case UsageDrop:
			if drop == nil {
				drop = &list[i]
			}
		}
		if boarding != nil && drop != nil {
			break
		}
	}
	return boarding, drop
}
