package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Outcomes of a forwarded batch.
const (
	OutcomeSaved  = "saved"
	OutcomeQueued = "queued"
	OutcomeFailed = "failed"
)

// Submission is one journal row: an attendance batch this service forwarded
// (or tried to forward) to the academy backend. The journal is operational
// bookkeeping only; the attendance rows themselves live in the backend.
type Submission struct {
	ID          string     `json:"id"`
	StudentID   int64      `json:"student_id"`
	RecordCount int        `json:"record_count"`
	CreateCount int        `json:"create_count"`
	UpdateCount int        `json:"update_count"`
	Outcome     string     `json:"outcome"`
	Attempts    int        `json:"attempts"`
	LastError   *string    `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Repository persists the submission journal in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Available reports whether a database was wired in. The service runs
// without one; the journal just goes dark.
func (r *Repository) Available() bool {
	return r != nil && r.db != nil
}

// Insert writes a new journal row.
func (r *Repository) Insert(ctx context.Context, sub Submission) (Submission, error) {
	if !r.Available() {
		return sub, errors.New("audit journal not configured")
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Attempts == 0 {
		sub.Attempts = 1
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO submissions (id, student_id, record_count, create_count, update_count, outcome, attempts, last_error)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, sub.ID, sub.StudentID, sub.RecordCount, sub.CreateCount, sub.UpdateCount, sub.Outcome, sub.Attempts, sub.LastError)
	if err := row.Scan(&sub.CreatedAt); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// MarkOutcome updates a row after a retry settles.
func (r *Repository) MarkOutcome(ctx context.Context, id, outcome string, attempts int, lastError *string) error {
	if !r.Available() {
		return errors.New("audit journal not configured")
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE submissions
		SET outcome = $2, attempts = $3, last_error = $4, updated_at = NOW()
		WHERE id = $1
	`, id, outcome, attempts, lastError)
	return err
}

// List returns journal rows for a student, newest first.
func (r *Repository) List(ctx context.Context, studentID int64, limit, offset int) ([]Submission, error) {
	if !r.Available() {
		return nil, errors.New("audit journal not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, record_count, create_count, update_count, outcome, attempts, last_error, created_at, updated_at
		FROM submissions
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, studentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.StudentID, &s.RecordCount, &s.CreateCount, &s.UpdateCount, &s.Outcome, &s.Attempts, &s.LastError, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
