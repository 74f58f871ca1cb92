package store

import (
	"strings"
	"time"
)

// Priority levels accepted on schedule events. Free-form input is normalized
// to one of these at the write boundary.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Enrollment statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// SourceManual tags events created directly by the user rather than by an
// agent or a conversation thread.
const SourceManual = "manual"

// NormalizePriority maps free-form priority text onto the closed set.
// Unknown or empty values become Medium. Applying it twice yields the same
// value.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high", "urgent":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// NormalizeCategory capitalizes the first letter and lowercases the rest,
// defaulting to General. Idempotent.
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return "General"
	}
	return strings.ToUpper(c[:1]) + strings.ToLower(c[1:])
}

// ScheduleEvent is a persisted calendar entry scoped to a user. Timestamps
// are ISO-8601 strings so date matching stays lexical (start_time LIKE
// 'YYYY-MM-DD%'). The (user, title, start) triple acts as a best-effort
// idempotency key.
type ScheduleEvent struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      string    `json:"user_id" gorm:"size:64;not null;index:idx_events_user;uniqueIndex:uk_user_title_start,priority:1"`
	Title       string    `json:"title" gorm:"size:255;not null;uniqueIndex:uk_user_title_start,priority:2"`
	StartTime   string    `json:"start_time" gorm:"size:32;not null;uniqueIndex:uk_user_title_start,priority:3"`
	EndTime     string    `json:"end_time" gorm:"size:32"`
	Priority    string    `json:"priority" gorm:"size:16;default:Medium"`
	Category    string    `json:"category" gorm:"size:64;default:General"`
	Description string    `json:"description"`
	Source      string    `json:"source" gorm:"size:128;default:manual;index:idx_events_source"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (ScheduleEvent) TableName() string { return "schedule_events" }

// ChatMessage is one append-only conversation entry keyed by (user, thread).
type ChatMessage struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"size:64;not null;index:idx_chat_user_thread,priority:1"`
	ThreadID  string    `json:"thread_id" gorm:"size:128;not null;index:idx_chat_user_thread,priority:2"`
	Role      string    `json:"role" gorm:"size:16;not null"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (ChatMessage) TableName() string { return "chat_messages" }

// Course is a catalog entry. The catalog is seeded at migration time and
// joined to enrollments by code.
type Course struct {
	Code        string  `json:"code" gorm:"primaryKey;size:32"`
	Name        string  `json:"name" gorm:"size:255;not null"`
	Credits     float64 `json:"credits"`
	Semester    string  `json:"semester" gorm:"size:32"`
	Instructor  string  `json:"instructor,omitempty" gorm:"size:128"`
	Description string  `json:"description,omitempty"`
}

// TableName returns the table name for GORM.
func (Course) TableName() string { return "courses" }

// Enrollment links a user to a catalog course. At most one row exists per
// (user, course); enrolling again upserts the row back to active status.
// Grade fields stay nil/empty until a grade is recorded.
type Enrollment struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:uk_user_course,priority:1"`
	CourseCode  string    `json:"course_code" gorm:"size:32;not null;uniqueIndex:uk_user_course,priority:2"`
	Status      string    `json:"status" gorm:"size:16;default:active"`
	Semester    string    `json:"semester" gorm:"size:32"`
	GradePoint  *float64  `json:"grade_point,omitempty"`
	LetterGrade string    `json:"letter_grade,omitempty" gorm:"size:4"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Enrollment) TableName() string { return "enrollments" }

// TodoItem is a simple per-user CRUD entity with no relationships.
type TodoItem struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"size:64;not null;index:idx_todos_user"`
	Text      string    `json:"text" gorm:"not null"`
	Completed bool      `json:"completed" gorm:"default:false"`
	DueDate   string    `json:"due_date,omitempty" gorm:"size:32"`
	Priority  string    `json:"priority,omitempty" gorm:"size:16"`
	Tag       string    `json:"tag,omitempty" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (TodoItem) TableName() string { return "todo_items" }

// ThreadSummary describes one conversation thread for listing.
type ThreadSummary struct {
	ThreadID     string    `json:"thread_id"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int64     `json:"message_count"`
}

// CourseGrade is one graded (or pending) course inside a semester record.
type CourseGrade struct {
	CourseCode  string   `json:"course_code"`
	CourseName  string   `json:"course_name"`
	Credits     float64  `json:"credits"`
	GradePoint  *float64 `json:"grade_point,omitempty"`
	LetterGrade string   `json:"letter_grade,omitempty"`
}

// SemesterRecord groups course grades by semester.
type SemesterRecord struct {
	Semester string        `json:"semester"`
	Courses  []CourseGrade `json:"courses"`
}

// AcademicHistory is the joined enrollment/catalog view with the derived
// cumulative GPA. Ungraded courses contribute to neither GPA sum.
type AcademicHistory struct {
	UserID        string           `json:"user_id"`
	Semesters     []SemesterRecord `json:"semesters"`
	CumulativeGPA float64          `json:"cumulative_gpa"`
	TotalCredits  float64          `json:"total_credits"` // graded credits only
}
