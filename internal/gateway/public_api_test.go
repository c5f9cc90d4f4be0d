package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"LoanScout/internal/admin"
	"LoanScout/internal/catalog"
	"LoanScout/internal/clicks"
	"LoanScout/internal/gateway"
)

const (
	testJWTSecret     = "test-secret-test-secret-test-secret!"
	testAdminPassword = "correct horse battery staple"
)

const feedJSON = `{
	"products": [
		{"id": 1, "company": "QuickCash", "product": "Fast Loan", "category": "Personal Loans",
		 "amount": "$1,000 - $5,000", "approvalRate": "High", "popularity": "Very High"},
		{"id": 2, "company": "SafeLend", "product": "Secure Loan", "category": "Personal Loans",
		 "amount": "$5,000 - $10,000", "approvalRate": "Medium", "popularity": "High"},
		{"id": 3, "company": "OldCorp", "product": "Retired Offer", "category": "Business Loans",
		 "amount": "N/A", "approvalRate": "Low", "popularity": "Low", "isActive": false}
	],
	"categories": ["Personal Loans", "Business Loans"]
}`

func newFeedTS(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedJSON))
	}))
}

func newCatalogTS(t *testing.T, feedURL string) *httptest.Server {
	t.Helper()

	s := &catalog.Server{
		Catalog: catalog.NewAccessor(catalog.NewHTTPSource(feedURL), zap.NewNop()),
		Log:     zap.NewNop(),
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	})

	return httptest.NewServer(h)
}

func newTrackerTS(t *testing.T) *httptest.Server {
	t.Helper()

	hash, err := admin.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	storage := clicks.NewMemStorage()
	s := &clicks.Server{
		Recorder: clicks.NewRecorder(context.Background(), clicks.Config{
			Storage: storage,
			Log:     zap.NewNop(),
		}),
		Storage: storage,
		Auth: &admin.Auth{
			Hash:   []byte(hash),
			Tokens: admin.NewTokenMaker(testJWTSecret),
			Log:    zap.NewNop(),
		},
		Log: zap.NewNop(),
	}

	h := clicks.NewHandler(s, clicks.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "tracker",
	})

	return httptest.NewServer(h)
}

func newGatewayTS(t *testing.T, catalogURL, trackerURL string) *httptest.Server {
	t.Helper()

	h, err := gateway.NewHandler(
		gateway.Deps{
			JWTSecret:  testJWTSecret,
			CatalogURL: catalogURL,
			TrackerURL: trackerURL,
		},
		gateway.HTTPDeps{
			Log:     zap.NewNop(),
			Service: "gateway",
		},
	)
	if err != nil {
		t.Fatalf("gateway.NewHandler: %v", err)
	}

	return httptest.NewServer(h)
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	return resp, raw
}

func TestPublicAPI(t *testing.T) {
	feed := newFeedTS(t)
	defer feed.Close()

	catalogTS := newCatalogTS(t, feed.URL)
	defer catalogTS.Close()

	trackerTS := newTrackerTS(t)
	defer trackerTS.Close()

	gw := newGatewayTS(t, catalogTS.URL, trackerTS.URL)
	defer gw.Close()

	c := gw.Client()

	// Catalog: inactive products are filtered out.
	resp, raw := doJSON(t, c, http.MethodGet, gw.URL+"/products", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /products: status %d body %s", resp.StatusCode, raw)
	}
	var products []map[string]any
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatalf("unmarshal products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(products))
	}

	// Catalog: amount-range filter.
	resp, raw = doJSON(t, c, http.MethodGet, gw.URL+"/products?min_amount=6000&max_amount=8000", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered GET /products: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatalf("unmarshal filtered products: %v", err)
	}
	if len(products) != 1 || products[0]["company"] != "SafeLend" {
		t.Fatalf("amount filter through gateway wrong: %s", raw)
	}

	// Catalog: product by id, and a normal 404 miss.
	resp, _ = doJSON(t, c, http.MethodGet, gw.URL+"/products/1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /products/1: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, c, http.MethodGet, gw.URL+"/products/999", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET /products/999: status %d, want 404", resp.StatusCode)
	}

	resp, raw = doJSON(t, c, http.MethodGet, gw.URL+"/categories", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /categories: status %d", resp.StatusCode)
	}
	var cats []string
	if err := json.Unmarshal(raw, &cats); err != nil || len(cats) != 2 {
		t.Fatalf("categories wrong: %s (%v)", raw, err)
	}

	// Tracker: record two clicks.
	for _, click := range []map[string]any{
		{"product_id": 1, "product_name": "Fast Loan", "commission": 10.0},
		{"product_id": 2, "product_name": "Secure Loan", "commission": 20.0},
	} {
		resp, raw = doJSON(t, c, http.MethodPost, gw.URL+"/clicks", click, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST /clicks: status %d body %s", resp.StatusCode, raw)
		}
	}

	// Stats are admin-only.
	resp, _ = doJSON(t, c, http.MethodGet, gw.URL+"/clicks/stats", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated stats: status %d, want 401", resp.StatusCode)
	}

	resp, raw = doJSON(t, c, http.MethodPost, gw.URL+"/admin/login",
		map[string]any{"password": testAdminPassword}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login: status %d body %s", resp.StatusCode, raw)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &login); err != nil || login.AccessToken == "" {
		t.Fatalf("login response wrong: %s (%v)", raw, err)
	}

	authz := map[string]string{"Authorization": "Bearer " + login.AccessToken}

	resp, raw = doJSON(t, c, http.MethodGet, gw.URL+"/clicks/stats", nil, authz)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /clicks/stats: status %d body %s", resp.StatusCode, raw)
	}
	var stats struct {
		TotalClicks  int     `json:"total_clicks"`
		TodayClicks  int     `json:"today_clicks"`
		TotalRevenue float64 `json:"total_revenue"`
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.TotalClicks != 2 || stats.TodayClicks != 2 || stats.TotalRevenue != 30 {
		t.Fatalf("stats wrong: %+v", stats)
	}

	resp, raw = doJSON(t, c, http.MethodPost, gw.URL+"/clicks/product-stats",
		map[string]any{"product_ids": []int{1, 2}}, authz)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /clicks/product-stats: status %d body %s", resp.StatusCode, raw)
	}
	var perProduct map[string]struct {
		TotalClicks  int     `json:"total_clicks"`
		TotalRevenue float64 `json:"total_revenue"`
	}
	if err := json.Unmarshal(raw, &perProduct); err != nil {
		t.Fatalf("unmarshal product stats: %v", err)
	}
	if perProduct["1"].TotalClicks != 1 || perProduct["2"].TotalRevenue != 20 {
		t.Fatalf("product stats wrong: %s", raw)
	}

	// Wrong admin password is rejected.
	resp, _ = doJSON(t, c, http.MethodPost, gw.URL+"/admin/login",
		map[string]any{"password": "nope"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password login: status %d, want 401", resp.StatusCode)
	}
}
