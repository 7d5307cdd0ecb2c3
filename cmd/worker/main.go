package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onepass/internal/alyes"
	"onepass/internal/audit"
	"onepass/internal/config"
	"onepass/internal/metrics"
	"onepass/internal/queue"
	"onepass/internal/store"
)

// Worker redelivers attendance batches the API could not hand to the academy
// backend, with bounded retries, and settles each batch's journal row.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable yet, journal updates may fail: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	backend := alyes.New(cfg.BackendBaseURL, cfg.BackendTimeout)

	var journal *audit.Repository
	if db != nil {
		journal = audit.NewRepository(db.Client)
	} else {
		journal = audit.NewRepository(nil)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "onepass:submissions")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for queued submissions...")
	for msg := range messages {
		batch, err := queue.DecodeBatch(msg)
		if err != nil {
			log.Printf("dropping undecodable message %s: %v", msg.ID, err)
			continue
		}
		if len(batch.Records) == 0 {
			continue
		}

		log.Printf("redelivering batch %s: %d record(s) for student %d", msg.ID, len(batch.Records), batch.StudentID)

		attempts := msg.Attempt
		var lastErr error
		for try := 0; try < cfg.SubmitRetries; try++ {
			if try > 0 {
				select {
				case <-time.After(cfg.RetryBackoff):
				case <-ctx.Done():
				}
			}
			if ctx.Err() != nil {
				// Shutting down: push the batch back so it survives.
				msg.Attempt = attempts
				if perr := q.Publish(context.Background(), msg); perr != nil {
					log.Printf("requeue on shutdown failed for %s: %v", msg.ID, perr)
				}
				lastErr = ctx.Err()
				break
			}

			attempts++
			_, lastErr = backend.SubmitAttendance(ctx, batch.Records)
			if lastErr == nil {
				break
			}
			log.Printf("batch %s attempt %d failed: %v", msg.ID, attempts, lastErr)
		}
		if ctx.Err() != nil && lastErr != nil {
			continue
		}

		if lastErr == nil {
			metrics.RetriesTotal.WithLabelValues("saved").Inc()
			if batch.AuditID != "" && journal.Available() {
				if err := journal.MarkOutcome(ctx, batch.AuditID, audit.OutcomeSaved, attempts, nil); err != nil {
					log.Printf("journal update failed for %s: %v", batch.AuditID, err)
				}
			}
			log.Printf("batch %s delivered after %d attempt(s)", msg.ID, attempts)
			continue
		}

		metrics.RetriesTotal.WithLabelValues("failed").Inc()
		errMsg := lastErr.Error()
		if batch.AuditID != "" && journal.Available() {
			if err := journal.MarkOutcome(ctx, batch.AuditID, audit.OutcomeFailed, attempts, &errMsg); err != nil {
				log.Printf("journal update failed for %s: %v", batch.AuditID, err)
			}
		}
		log.Printf("batch %s given up after %d attempt(s): %v", msg.ID, attempts, lastErr)
	}

	log.Println("worker stopped")
}
