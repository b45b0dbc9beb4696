package season

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/pegsync/internal/domain/model"
	"github.com/okian/pegsync/internal/domain/types"
)

// Client is a minimal JSON client for the pegsync HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// StatusError is returned for unexpected HTTP statuses.
type StatusError struct {
	Status int
	Code   string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d: %s: %s", e.Status, e.Code, e.Body)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

type allocateBody struct {
	Mode         string              `json:"mode"`
	SlotCount    int                 `json:"slot_count"`
	Participants []model.Participant `json:"participants"`
}

// Allocate requests an allocation computed against stored history.
func (c *Client) Allocate(ctx context.Context, mode string, slots int, roster []model.Participant) (types.AllocationResult, error) {
	var res types.AllocationResult
	err := c.do(ctx, http.MethodPost, "/allocations",
		allocateBody{Mode: mode, SlotCount: slots, Participants: roster}, &res, http.StatusOK)
	return res, err
}

type saveBody struct {
	EventID    string           `json:"event_id"`
	EventDate  string           `json:"event_date"`
	Allocation model.Allocation `json:"allocation"`
}

// Save records an allocation as history.
func (c *Client) Save(ctx context.Context, eventID string, date time.Time, a model.Allocation) (types.SaveStatus, error) {
	var st types.SaveStatus
	err := c.do(ctx, http.MethodPost, "/allocations/save",
		saveBody{EventID: eventID, EventDate: date.UTC().Format(time.RFC3339), Allocation: a},
		&st, http.StatusAccepted, http.StatusOK)
	return st, err
}

type fairnessBody struct {
	Participants []model.Participant `json:"participants"`
}

// Fairness scores the roster against stored history.
func (c *Client) Fairness(ctx context.Context, roster []model.Participant) (types.FairnessReport, error) {
	var rep types.FairnessReport
	err := c.do(ctx, http.MethodPost, "/fairness", fairnessBody{Participants: roster}, &rep, http.StatusOK)
	return rep, err
}

// History lists stored records for one participant.
func (c *Client) History(ctx context.Context, participantID string) ([]model.HistoricalAssignment, error) {
	var out struct {
		Records []model.HistoricalAssignment `json:"records"`
	}
	path := "/history?participant_id=" + url.QueryEscape(participantID)
	err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK)
	return out.Records, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	for _, w := range want {
		if resp.StatusCode != w {
			continue
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	}

	se := &StatusError{Status: resp.StatusCode, Body: string(raw)}
	var eb struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &eb) == nil && eb.Code != "" {
		se.Code, se.Body = eb.Code, eb.Message
	}
	return se
}
