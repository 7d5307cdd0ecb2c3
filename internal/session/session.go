package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Steps of the confirmation flow, in order.
const (
	StepVerified  = 1 // guardian matched a student
	StepReviewing = 2 // lessons fetched, form shown
)

// ErrExpired means the session is gone or its gate has lapsed; the guardian
// restarts from verification.
var ErrExpired = errors.New("session expired")

// ErrStepNotReached means a later step was requested before an earlier one
// completed.
var ErrStepNotReached = errors.New("step not reached")

// Session is the explicit flow state handlers pass around. Nothing in the
// reconciliation core ever reads it.
type Session struct {
	ID        string
	StudentID int64
	OrgID     string
	Step      int
	ExpiresAt time.Time
}

// Store keeps sessions in redis with a TTL that doubles as the expiry gate.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

func key(id string) string { return "onepass:session:" + id }

// Create opens a session at the verified step and returns it.
func (s *Store) Create(ctx context.Context, studentID int64, orgID string) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		StudentID: studentID,
		OrgID:     orgID,
		Step:      StepVerified,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	err := s.client.HSet(ctx, key(sess.ID), map[string]interface{}{
		"student_id": sess.StudentID,
		"org_id":     sess.OrgID,
		"step":       sess.Step,
	}).Err()
	if err != nil {
		return Session{}, fmt.Errorf("session create: %w", err)
	}
	if err := s.client.Expire(ctx, key(sess.ID), s.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("session expire: %w", err)
	}
	return sess, nil
}

// Get loads a session, or ErrExpired when redis no longer has it.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	vals, err := s.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("session get: %w", err)
	}
	if len(vals) == 0 {
		return Session{}, ErrExpired
	}
	sess := Session{ID: id, OrgID: vals["org_id"]}
	if _, err := fmt.Sscanf(vals["student_id"], "%d", &sess.StudentID); err != nil {
		return Session{}, fmt.Errorf("session corrupt: %w", err)
	}
	if _, err := fmt.Sscanf(vals["step"], "%d", &sess.Step); err != nil {
		return Session{}, fmt.Errorf("session corrupt: %w", err)
	}
	if ttl, err := s.client.TTL(ctx, key(id)).Result(); err == nil && ttl > 0 {
		sess.ExpiresAt = time.Now().Add(ttl)
	}
	return sess, nil
}

// Require loads the session and checks it has reached at least step.
func (s *Store) Require(ctx context.Context, id string, step int) (Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Step < step {
		return Session{}, ErrStepNotReached
	}
	return sess, nil
}

// Advance raises the session's step; steps never go backward.
func (s *Store) Advance(ctx context.Context, id string, step int) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Step >= step {
		return nil
	}
	return s.client.HSet(ctx, key(id), "step", step).Err()
}

// Drop discards a session, e.g. after the flow completes.
func (s *Store) Drop(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}
