package labelstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"

	"go.uber.org/zap"
)

// Config is the per-operation policy for the remote task source: endpoint,
// token, the category to project-id table, timeouts and the fetch retry
// bound. Submissions are never retried.
type Config struct {
	BaseURL         string
	APIToken        string
	ProjectIDs      map[entities.TaskCategory]int
	RequestTimeout  time.Duration
	SubmitTimeout   time.Duration
	ProbeTimeout    time.Duration
	MaxAttempts     int
	RetryBackoff    time.Duration
	OfflineFallback bool
}

func (c *Config) applyDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 15 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 3 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
}

type Client struct {
	mu   sync.RWMutex
	cfg  Config
	http *http.Client
	log  *zap.Logger
	now  func() time.Time
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		panic("logger is nil")
	}
	cfg.applyDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  log,
		now:  time.Now,
	}
}

// Configure swaps the client settings at runtime; in-flight calls keep the
// snapshot they started with.
func (c *Client) Configure(cfg Config) {
	cfg.applyDefaults()
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

func (c *Client) config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

type taskRecord struct {
	ID        int64           `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	IsLabeled bool            `json:"is_labeled"`
}

// FetchTasks reads the pending tasks of the category's project. Transport
// errors and timeouts are retried up to MaxAttempts; a non-2xx response is
// surfaced immediately with its body.
func (c *Client) FetchTasks(ctx context.Context, category entities.TaskCategory) ([]entities.Task, error) {
	cfg := c.config()

	projectID, ok := cfg.ProjectIDs[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no project id", exceptions.ErrUnknownCategory, category)
	}

	url := fmt.Sprintf("%s/api/projects/%d/tasks/", cfg.BaseURL, projectID)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		records, err := c.fetchOnce(ctx, cfg, url)
		if err == nil {
			tasks := make([]entities.Task, 0, len(records))
			for _, record := range records {
				tasks = append(tasks, entities.Task{
					ID:        record.ID,
					Category:  category,
					Data:      record.Data,
					IsLabeled: record.IsLabeled,
					CreatedAt: record.CreatedAt,
				})
			}
			return tasks, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var rejection *rejectionError
		if errors.As(err, &rejection) {
			return nil, fmt.Errorf("%w: %s", exceptions.ErrTaskSourceUnavailable, rejection.Error())
		}

		lastErr = err
		c.log.Warn("source: fetch attempt failed",
			zap.String("category", string(category)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < cfg.MaxAttempts && cfg.RetryBackoff > 0 {
			select {
			case <-time.After(cfg.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", exceptions.ErrTaskSourceUnavailable, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, cfg Config, url string) ([]taskRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &rejectionError{status: resp.StatusCode, body: string(body)}
	}

	var records []taskRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return records, nil
}

// SubmitAnnotation posts the user's answer to the per-task endpoint. A
// connectivity probe runs first; if the network is unreachable the call
// either fails fast or, with the offline fallback enabled, returns a
// synthesized ack without touching the network. Never retried.
func (c *Client) SubmitAnnotation(ctx context.Context, taskID int64, annotation *entities.Annotation) (*entities.SubmissionAck, error) {
	if err := annotation.Validate(); err != nil {
		return nil, err
	}
	cfg := c.config()

	if !c.probe(ctx, cfg) {
		if cfg.OfflineFallback {
			c.log.Warn("source: network unreachable, synthesizing ack", zap.Int64("task_id", taskID))
			return &entities.SubmissionAck{
				ID:          -taskID,
				TaskID:      taskID,
				CreatedAt:   c.now(),
				Synthesized: true,
			}, nil
		}
		return nil, exceptions.ErrNetworkUnreachable
	}

	body, err := json.Marshal(annotation)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.SubmitTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/tasks/%d/annotations/", cfg.BaseURL, taskID)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exceptions.ErrTaskSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		diagnostic, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", exceptions.ErrSubmissionRejected, resp.StatusCode, diagnostic)
	}

	ack := entities.SubmissionAck{}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("decode annotation ack: %w", err)
	}
	if ack.TaskID == 0 {
		ack.TaskID = taskID
	}
	return &ack, nil
}

func (c *Client) probe(ctx context.Context, cfg Config) bool {
	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

type rejectionError struct {
	status int
	body   string
}

func (e *rejectionError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}
