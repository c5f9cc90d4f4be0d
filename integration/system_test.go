//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

func TestSystem_E2E(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var products []map[string]any
	doJSON(t, http.MethodGet, baseURL+"/products", nil, &products, 200)
	if len(products) == 0 {
		t.Fatalf("expected non-empty products")
	}

	pid, ok := products[0]["id"].(float64)
	if !ok || pid <= 0 {
		t.Fatalf("product id missing in response: %#v", products[0])
	}
	name, _ := products[0]["product"].(string)

	var categories []string
	doJSON(t, http.MethodGet, baseURL+"/categories", nil, &categories, 200)
	if len(categories) == 0 {
		t.Fatalf("expected non-empty categories")
	}

	var clicked map[string]any
	doJSON(t, http.MethodPost, baseURL+"/clicks", map[string]any{
		"product_id":   int(pid),
		"product_name": name,
		"commission":   12.5,
	}, &clicked, 201)
	if clicked["id"] == nil {
		t.Fatalf("click event id missing: %#v", clicked)
	}

	adminPass := os.Getenv("E2E_ADMIN_PASSWORD")
	if adminPass == "" {
		t.Log("E2E_ADMIN_PASSWORD not set, skipping stats checks")
		return
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	doJSON(t, http.MethodPost, baseURL+"/admin/login", map[string]any{
		"password": adminPass,
	}, &loginResp, 200)
	if loginResp.AccessToken == "" {
		t.Fatalf("empty access_token")
	}

	var stats struct {
		TotalClicks int `json:"total_clicks"`
	}
	doJSONAuth(t, http.MethodGet, baseURL+"/clicks/stats", loginResp.AccessToken, nil, &stats, 200)
	if stats.TotalClicks < 1 {
		t.Fatalf("expected at least one recorded click, got %d", stats.TotalClicks)
	}

	if os.Getenv("E2E_RESTART_TRACKER") == "1" {
		restartTrackerContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")
		doJSONAuth(t, http.MethodGet, baseURL+"/clicks/stats", loginResp.AccessToken, nil, &stats, 200)
		if stats.TotalClicks < 1 {
			t.Fatalf("click log lost across restart")
		}
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()
	doJSONAuth(t, method, url, "", body, out, want)
}

func doJSONAuth(t *testing.T, method, url, token string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
