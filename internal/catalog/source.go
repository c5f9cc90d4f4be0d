package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Document is the shape of the upstream catalog resource.
type Document struct {
	Products   []Product `json:"products"`
	Categories []string  `json:"categories"`
}

// Source fetches one catalog document. Implementations must be safe for
// concurrent use.
type Source interface {
	Fetch(ctx context.Context) (Document, error)
}

var (
	ErrSourceUnavailable = errors.New("catalog source unavailable")
	ErrSourceBadStatus   = errors.New("catalog source bad status")
	ErrSourceBadPayload  = errors.New("catalog source bad payload")
)

// HTTPSource fetches the catalog from a static JSON resource over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(rawURL string) *HTTPSource {
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" && u.Host != "" {
		rawURL = strings.TrimRight(rawURL, "/")
	}
	return &HTTPSource{
		URL:    rawURL,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Document{}, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Document{}, ErrSourceUnavailable
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return Document{}, ErrSourceUnavailable
		}
		return Document{}, ErrSourceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Document{}, fmt.Errorf("%w: status=%d", ErrSourceBadStatus, resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrSourceBadPayload, err)
	}
	return doc, nil
}

// FileSource reads the catalog document from a local JSON file, for
// deployments that ship the feed alongside the binary.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(_ context.Context) (Document, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrSourceBadPayload, err)
	}
	return doc, nil
}
