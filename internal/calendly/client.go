// Package calendly is the adapter for the external scheduling provider. It
// owns the wire formats, the tolerant response-shape probing, and the
// mapping of provider failures onto the booking error taxonomy.
package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Domenick1991/leadbooking/config"
)

// APIError carries the raw provider response for classification and
// operator diagnosis.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendly api error %d: %s", e.Status, string(e.Body))
}

type Client struct {
	http         *http.Client
	baseURL      string
	token        string
	eventTypeURI string
}

func New(cfg config.ProviderConfig) *Client {
	return &Client{
		http:         &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		baseURL:      cfg.BaseURL,
		token:        cfg.Token,
		eventTypeURI: cfg.EventTypeURI,
	}
}

func (c *Client) EventTypeURI() string { return c.eventTypeURI }

// AvailableTimes queries the provider for open slots in [start, end] and
// returns the raw timestamps it could find in the response, in provider
// order. Callers normalize the result into a SlotSet.
func (c *Client) AvailableTimes(ctx context.Context, start, end time.Time, tz string) ([]string, error) {
	params := url.Values{}
	params.Set("event_type", c.eventTypeURI)
	params.Set("start_time", start.UTC().Format(time.RFC3339))
	params.Set("end_time", end.UTC().Format(time.RFC3339))
	if tz != "" {
		params.Set("timezone", tz)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/event_type_available_times?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: body}
	}
	return ExtractTimes(body), nil
}

// InviteeRequest is the booking creation payload.
type InviteeRequest struct {
	StartTime time.Time
	FirstName string
	LastName  string
	FullName  string
	Email     string
	Timezone  string
	Phone     string
	Answers   []map[string]any
}

// CreateInvitee books the slot with the provider. Non-2xx responses come
// back as *APIError with the raw payload attached.
func (c *Client) CreateInvitee(ctx context.Context, req InviteeRequest) (map[string]any, error) {
	invitee := map[string]any{
		"name":       req.FullName,
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"email":      req.Email,
		"timezone":   req.Timezone,
	}
	if req.Phone != "" {
		invitee["text_reminder_number"] = req.Phone
	}

	payload := map[string]any{
		"event_type":            c.eventTypeURI,
		"start_time":            req.StartTime.UTC().Format(time.RFC3339),
		"invitee":               invitee,
		"questions_and_answers": req.Answers,
		"location":              map[string]any{"kind": "zoom_conference"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invitees", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Authorization", "Bearer "+c.token)
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: respBody}
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// some accounts answer with a bare text body on success
		return map[string]any{"raw": string(respBody)}, nil
	}
	return parsed, nil
}
