package queue

import (
	"context"
	"testing"
	"time"

	"onepass/internal/attend"
)

func TestBatchRoundTrip(t *testing.T) {
	id := int64(5)
	in := Batch{
		AuditID:   "a-1",
		StudentID: 7,
		Records: []attend.Record{{
			ID: &id, Type: attend.UsageBoarding, StudentID: 7,
			LessonID: 1, LessonStudentID: 2, LessonScheduleID: 3,
			LessonStudentDetailID: 4, Time: "2024-03-10",
			Status: attend.StatusWillAttend, BoardingOrder: 999,
		}},
	}

	msg, err := NewBatchMessage("a-1", in)
	if err != nil {
		t.Fatalf("NewBatchMessage: %v", err)
	}
	if msg.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", msg.Attempt)
	}

	out, err := DecodeBatch(msg)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if out.StudentID != 7 || len(out.Records) != 1 || *out.Records[0].ID != 5 {
		t.Errorf("decoded %+v", out)
	}
	if out.Records[0].Status != attend.StatusWillAttend {
		t.Errorf("status = %q", out.Records[0].Status)
	}
}

func TestInMemoryQueueDelivers(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, err := NewBatchMessage("x", Batch{StudentID: 1})
	if err != nil {
		t.Fatalf("NewBatchMessage: %v", err)
	}
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	select {
	case got := <-out:
		if got.ID != "x" {
			t.Errorf("id = %q, want x", got.ID)
		}
	case <-ctx.Done():
		t.Fatal("message never delivered")
	}
}
