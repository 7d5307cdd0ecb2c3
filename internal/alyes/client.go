package alyes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"onepass/internal/attend"
)

// Client calls the academy backend that owns students, lessons, and the
// attendance store.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// envelope is the backend's common response shell. Every payload arrives
// inside result.
type envelope struct {
	ResponseName string          `json:"responseName"`
	ResponseCode int             `json:"responseCode"`
	Message      *string         `json:"message"`
	Result       json.RawMessage `json:"result"`
}

// APIError is a backend response whose envelope reports failure. Callers
// treat it the same as a transport failure.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

func (e *envelope) unwrap(out any) error {
	if e.ResponseCode < 200 || e.ResponseCode >= 300 || len(e.Result) == 0 || string(e.Result) == "null" {
		msg := "empty result"
		if e.Message != nil {
			msg = *e.Message
		}
		return &APIError{Code: e.ResponseCode, Message: msg}
	}
	if err := json.Unmarshal(e.Result, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("backend sent %s with undecodable body: %w", resp.Status, err)
	}
	return env.unwrap(out)
}

// FindStudent looks a student up by member name and guardian phone. An empty
// slice is a valid not-found outcome, not an error.
func (c *Client) FindStudent(ctx context.Context, name, phone string) ([]attend.Student, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("phone", NormalizePhone(phone))

	var students []attend.Student
	if err := c.get(ctx, "/api/student/find/name-and-phone", params, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// SearchLessons fetches the student's lesson bundles for the given day plus
// the next. Bundles are validated at this boundary so the reconciliation
// engine only ever sees well-formed aggregates.
func (c *Client) SearchLessons(ctx context.Context, studentID int64, date time.Time) ([]attend.LessonBundle, error) {
	params := url.Values{}
	params.Set("time", date.Format("2006-01-02"))

	var bundles []attend.LessonBundle
	path := fmt.Sprintf("/api/lesson-student/lesson-search-plus-one-day/%d", studentID)
	if err := c.get(ctx, path, params, &bundles); err != nil {
		return nil, err
	}
	if err := ValidateBundles(bundles); err != nil {
		return nil, err
	}
	return bundles, nil
}

// SubmitAttendance sends a bulk upsert. Records with ids update existing
// rows, records without create new ones. The response echoes the persisted
// records with ids populated.
func (c *Client) SubmitAttendance(ctx context.Context, records []attend.Record) ([]attend.Record, error) {
	var saved []attend.Record
	if err := c.post(ctx, "/api/shuttle-attendance/pre/save", records, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Organization fetches academy details for the landing page.
func (c *Client) Organization(ctx context.Context, id string) (*Organization, error) {
	var orgs []Organization
	if err := c.get(ctx, "/api/organization/"+url.PathEscape(id), nil, &orgs); err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, nil
	}
	return &orgs[0], nil
}

// Organization is the academy the flow runs under.
type Organization struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	RepresentClassName string `json:"representClassName"`
	Address            string `json:"address"`
	AddressDetail      string `json:"addressDetail"`
	Phone              string `json:"phone"`
	CreatedDate        string `json:"createdDate"`
	ModifiedDate       string `json:"modifiedDate"`
}
