package attend

// ShuttleUsage describes which shuttle legs a student uses for a lesson.
type ShuttleUsage string

const (
	UsageNone     ShuttleUsage = "NONE"
	UsageBoarding ShuttleUsage = "BOARDING"
	UsageDrop     ShuttleUsage = "DROP"
	UsageBoth     ShuttleUsage = "BOTH"
)

// Status is the attendance intent for a single lesson occurrence.
type Status string

const (
	StatusWillAttend Status = "WILL_ATTEND"
	StatusAttend     Status = "ATTEND"
	StatusWillAbsent Status = "WILL_ABSENT"
	StatusAbsent     Status = "ABSENT"
)

// Weekday is the backend's schedule-day enum. Thursday is spelled TUR on
// the wire; that spelling is the backend's, not ours to fix.
type Weekday string

const (
	Sun Weekday = "SUN"
	Mon Weekday = "MON"
	Tue Weekday = "TUE"
	Wed Weekday = "WED"
	Tur Weekday = "TUR"
	Fri Weekday = "FRI"
	Sat Weekday = "SAT"
)

// Lesson is a course offering.
type Lesson struct {
	ID        *int64 `json:"id"`
	Name      string `json:"name"`
	SportName string `json:"sportName"`
	Capacity  int    `json:"capacity"`
	Price     int64  `json:"price"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Student is the academy member the guardian answers for.
type Student struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LessonStudent links a student to a lesson.
type LessonStudent struct {
	ID       *int64  `json:"id"`
	LessonID *int64  `json:"lessonId"`
	Status   string  `json:"status"`
	Weekday  Weekday `json:"weekday,omitempty"`
}

// LessonSchedule is one scheduled occurrence of a lesson.
type LessonSchedule struct {
	ID          *int64  `json:"id"`
	ScheduleDay Weekday `json:"scheduleDay"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
}

// LessonStudentDetail is the student's shuttle profile for an enrollment.
type LessonStudentDetail struct {
	ID            *int64       `json:"id"`
	ShuttleUsage  ShuttleUsage `json:"shuttleUsage"`
	PickupAddress string       `json:"pickupAddress"`
	PickupTime    string       `json:"pickupTime"`
	DropAddress   string       `json:"dropAddress"`
	DropTime      string       `json:"dropTime"`
	PayMethod     string       `json:"payMethod"`
}

// ShuttleRecord is a previously submitted attendance record as the backend
// returns it. The slice order inside a LessonBundle is insertion order, which
// is what "latest" means throughout this package.
type ShuttleRecord struct {
	ID            int64        `json:"id"`
	Type          ShuttleUsage `json:"type"`
	Status        Status       `json:"status"`
	Time          string       `json:"time"`
	BoardingOrder int          `json:"boardingOrder"`
	CreatedDate   string       `json:"createdDate,omitempty"`
	ModifiedDate  string       `json:"modifiedDate,omitempty"`
}

// LessonBundle is the joined view the backend returns per lesson: the lesson,
// the student's enrollment, one schedule occurrence, the shuttle profile, and
// the attendance history for the pair.
type LessonBundle struct {
	Lesson              Lesson              `json:"lesson"`
	Student             Student             `json:"student"`
	LessonStudent       LessonStudent       `json:"lessonStudent"`
	LessonSchedule      LessonSchedule      `json:"lessonSchedule"`
	LessonStudentDetail LessonStudentDetail `json:"lessonStudentDetail"`
	ShuttleAttendance   []ShuttleRecord     `json:"shuttleAttendance"`
}

// Identifiers are the four foreign keys an attendance record must carry.
type Identifiers struct {
	LessonID              int64
	LessonStudentID       int64
	LessonScheduleID      int64
	LessonStudentDetailID int64
}

// Record is one attendance upsert row. A nil ID means create, a set ID means
// update. Status is omitted while the guardian has not chosen yet.
type Record struct {
	ID                    *int64       `json:"id,omitempty"`
	Type                  ShuttleUsage `json:"type"`
	StudentID             int64        `json:"studentId"`
	LessonID              int64        `json:"lessonId"`
	LessonStudentID       int64        `json:"lessonStudentId"`
	LessonScheduleID      int64        `json:"lessonScheduleId"`
	LessonStudentDetailID int64        `json:"lessonStudentDetailId"`
	Time                  string       `json:"time"`
	Status                Status       `json:"status,omitempty"`
	BoardingOrder         int          `json:"boardingOrder"`
}

// Submission is the result of reconciling form input against lesson history.
// The flags are advisory: the caller decides whether to block the network call.
type Submission struct {
	Payload       []Record
	HasUnselected bool
	HasChanged    bool
	Skipped       int
}
