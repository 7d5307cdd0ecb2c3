package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onepass/internal/alyes"
	"onepass/internal/attend"
	"onepass/internal/audit"
	"onepass/internal/auth"
	"onepass/internal/config"
	"onepass/internal/httpmiddleware"
	"onepass/internal/metrics"
	"onepass/internal/queue"
	"onepass/internal/session"
	"onepass/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable yet, journal writes may fail: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	backend := alyes.New(cfg.BackendBaseURL, cfg.BackendTimeout)
	sessions := session.NewStore(redisClient.Client, cfg.SessionTTL)

	var journal *audit.Repository
	if db != nil {
		journal = audit.NewRepository(db.Client)
	} else {
		journal = audit.NewRepository(nil)
	}

	var q queue.Queue
	var limiter httpmiddleware.Limiter
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "onepass:submissions")
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin, time.Minute)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.GinMiddleware(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "journal": journal.Available()})
	})

	r.GET("/v1/organization/:id", func(c *gin.Context) {
		org, err := backend.Organization(c.Request.Context(), c.Param("id"))
		if err != nil {
			log.Printf("organization lookup failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
			return
		}
		if org == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"organization": org})
	})

	// Step 1: the guardian identifies the student by member name and guardian
	// phone. A match opens a session at the verified step and returns a token
	// whose lifetime is the session expiry. Multiple matches come back as a
	// list for the guardian to disambiguate via student_id.
	r.POST("/v1/session/verify", func(c *gin.Context) {
		var req struct {
			Name      string `json:"name" binding:"required"`
			Phone     string `json:"phone" binding:"required"`
			OrgID     string `json:"org_id"`
			StudentID int64  `json:"student_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		students, err := backend.FindStudent(c.Request.Context(), req.Name, req.Phone)
		if err != nil {
			log.Printf("student find failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
			return
		}
		if len(students) == 0 {
			c.JSON(http.StatusOK, gin.H{"found": false, "students": []attend.Student{}})
			return
		}

		chosen := students[0]
		if len(students) > 1 {
			if req.StudentID == 0 {
				c.JSON(http.StatusOK, gin.H{"found": true, "students": students})
				return
			}
			matched := false
			for _, s := range students {
				if s.ID == req.StudentID {
					chosen = s
					matched = true
					break
				}
			}
			if !matched {
				c.JSON(http.StatusBadRequest, gin.H{"error": "student_id not among matches"})
				return
			}
		}

		sess, err := sessions.Create(c.Request.Context(), chosen.ID, req.OrgID)
		if err != nil {
			log.Printf("session create failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session open failed"})
			return
		}
		token, exp, err := auth.Issue(sess.ID, chosen.ID, req.OrgID, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.SessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"found":      true,
			"student":    chosen,
			"token":      token,
			"expires_at": exp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.GuardianAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Step 2: list today's and tomorrow's lessons with prefilled attendance
	// defaults from the latest known records.
	authGroup.GET("/lessons", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		if _, err := sessions.Require(c.Request.Context(), claims.SessionID, session.StepVerified); err != nil {
			sessionError(c, err)
			return
		}

		date, ok := parseDate(c.Query("date"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}

		bundles, err := backend.SearchLessons(c.Request.Context(), claims.StudentID, date)
		if err != nil {
			log.Printf("lesson search failed for student %d: %v", claims.StudentID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
			return
		}

		upcoming := attend.FilterUpcoming(bundles, date, time.Now().Format("15:04"))
		defaults, err := attend.ComputeDefaults(claims.StudentID, date, upcoming)
		if err != nil {
			log.Printf("defaults failed for student %d: %v", claims.StudentID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "inconsistent lesson data"})
			return
		}
		metrics.SkippedLessonsTotal.Add(float64(len(upcoming) - len(defaults)))

		if err := sessions.Advance(c.Request.Context(), claims.SessionID, session.StepReviewing); err != nil {
			sessionError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"date":     date.Format("2006-01-02"),
			"lessons":  upcoming,
			"defaults": defaults,
		})
	})

	// Step 3: reconcile the guardian's choices against fresh lesson data and
	// forward the upsert batch. Incomplete selections and no-op batches never
	// reach the backend.
	authGroup.POST("/attendance", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		if _, err := sessions.Require(c.Request.Context(), claims.SessionID, session.StepReviewing); err != nil {
			sessionError(c, err)
			return
		}

		var req struct {
			Date  string              `json:"date" binding:"required"`
			Items []attend.FormChoice `json:"items" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		date, ok := parseDate(req.Date)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		for _, it := range req.Items {
			if it.Status != "" && !alyes.ValidateStatus(it.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(it.Status)})
				return
			}
		}

		// Always reconcile against fresh lesson data. Choices are keyed by
		// enrollment id, so a list that shifted since the form was built is
		// rejected instead of pairing statuses with the wrong lessons.
		bundles, err := backend.SearchLessons(c.Request.Context(), claims.StudentID, date)
		if err != nil {
			log.Printf("lesson search failed for student %d: %v", claims.StudentID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
			return
		}
		upcoming := attend.FilterUpcoming(bundles, date, time.Now().Format("15:04"))

		form, err := attend.AlignChoices(upcoming, req.Items)
		if err != nil {
			if errors.Is(err, attend.ErrStaleChoices) {
				c.JSON(http.StatusConflict, gin.H{
					"code":  "stale",
					"error": "lesson list changed, reload and choose again",
				})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sub, err := attend.ComputeSubmission(claims.StudentID, date, upcoming, form)
		if err != nil {
			log.Printf("reconciliation failed for student %d: %v", claims.StudentID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "inconsistent lesson data"})
			return
		}
		metrics.SkippedLessonsTotal.Add(float64(sub.Skipped))

		if sub.HasUnselected {
			metrics.SubmissionsTotal.WithLabelValues("unselected").Inc()
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"code":  "unselected",
				"error": "every lesson needs an attendance choice",
			})
			return
		}
		if !sub.HasChanged {
			metrics.SubmissionsTotal.WithLabelValues("no_change").Inc()
			c.JSON(http.StatusOK, gin.H{
				"changed": false,
				"message": "attendance already recorded, nothing to update",
			})
			return
		}

		creates, updates := countModes(sub.Payload)

		saved, err := backend.SubmitAttendance(c.Request.Context(), sub.Payload)
		if err != nil {
			log.Printf("submit failed for student %d, queueing for retry: %v", claims.StudentID, err)
			entry, jerr := journalInsert(c, journal, claims.StudentID, sub.Payload, creates, updates, audit.OutcomeQueued, err)
			if jerr != nil {
				log.Printf("journal write failed: %v", jerr)
			}
			msg, merr := queue.NewBatchMessage(entry.ID, queue.Batch{
				AuditID:   entry.ID,
				StudentID: claims.StudentID,
				Records:   sub.Payload,
			})
			if merr == nil {
				merr = q.Publish(c.Request.Context(), msg)
			}
			if merr != nil {
				log.Printf("queue publish failed: %v", merr)
				metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
				c.JSON(http.StatusBadGateway, gin.H{"error": "submission failed, please retry"})
				return
			}
			metrics.SubmissionsTotal.WithLabelValues("queued").Inc()
			c.JSON(http.StatusAccepted, gin.H{"queued": true, "records": len(sub.Payload)})
			return
		}

		if _, jerr := journalInsert(c, journal, claims.StudentID, sub.Payload, creates, updates, audit.OutcomeSaved, nil); jerr != nil {
			log.Printf("journal write failed: %v", jerr)
		}
		metrics.SubmissionsTotal.WithLabelValues("saved").Inc()
		metrics.RecordsForwardedTotal.WithLabelValues("create").Add(float64(creates))
		metrics.RecordsForwardedTotal.WithLabelValues("update").Add(float64(updates))

		c.JSON(http.StatusOK, gin.H{"changed": true, "saved": saved})
	})

	authGroup.GET("/submissions", func(c *gin.Context) {
		if !journal.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal not configured"})
			return
		}
		claims, _ := auth.FromContext(c)
		limit, offset := 50, 0
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		if v := c.Query("offset"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				offset = parsed
			}
		}
		subs, err := journal.List(c.Request.Context(), claims.StudentID, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"submissions": subs})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), true
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func countModes(records []attend.Record) (creates, updates int) {
	for _, r := range records {
		if r.ID == nil {
			creates++
		} else {
			updates++
		}
	}
	return creates, updates
}

func journalInsert(c *gin.Context, journal *audit.Repository, studentID int64, payload []attend.Record, creates, updates int, outcome string, cause error) (audit.Submission, error) {
	entry := audit.Submission{
		StudentID:   studentID,
		RecordCount: len(payload),
		CreateCount: creates,
		UpdateCount: updates,
		Outcome:     outcome,
	}
	if cause != nil {
		msg := cause.Error()
		entry.LastError = &msg
	}
	if !journal.Available() {
		return entry, nil
	}
	return journal.Insert(c.Request.Context(), entry)
}

func sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, verify again"})
	case errors.Is(err, session.ErrStepNotReached):
		c.JSON(http.StatusForbidden, gin.H{"error": "complete the previous step first"})
	default:
		log.Printf("session check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session check failed"})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
