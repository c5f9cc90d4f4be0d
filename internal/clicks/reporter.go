package clicks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// EventProductClick is the analytics event name reported for each click.
const EventProductClick = "product_click"

// Reporter forwards a recorded click to an external analytics collector.
// Reporting is best-effort; the recorder logs and ignores errors.
type Reporter interface {
	Report(ctx context.Context, event string, params map[string]any) error
}

type NopReporter struct{}

func (NopReporter) Report(context.Context, string, map[string]any) error { return nil }

// HTTPReporter posts events to a measurement endpoint. ClientID identifies
// this process instance to the collector across events.
type HTTPReporter struct {
	Endpoint string
	ClientID string
	Client   *http.Client
}

func NewHTTPReporter(endpoint string) *HTTPReporter {
	return &HTTPReporter{
		Endpoint: endpoint,
		ClientID: uuid.NewString(),
		Client:   &http.Client{Timeout: 3 * time.Second},
	}
}

type reportPayload struct {
	ClientID string         `json:"client_id"`
	Event    string         `json:"event"`
	Params   map[string]any `json:"params"`
}

func (rp *HTTPReporter) Report(ctx context.Context, event string, params map[string]any) error {
	body, err := json.Marshal(reportPayload{
		ClientID: rp.ClientID,
		Event:    event,
		Params:   params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rp.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rp.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("analytics endpoint status=%d", resp.StatusCode)
	}
	return nil
}
