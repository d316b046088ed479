package wsprlive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/searcharc/internal/observability"
)

const spotResponseCSV = `"2014-03-08 18:26:00","14","VK6XT",-31.77,117.29,"JA5NVN",34.04,133.58,14097050,-21,0,37,7885
"2014-03-08 18:28:00","7","ZL1AA",-36.52,174.75,"VK2KRR",-35.52,147.12,7040012,-15,-1,30,2250
`

// TestClientFetchParsesResponse serves a canned CSV body and checks the
// request shape, the parsed records, and the fetch counters.
func TestClientFetchParsesResponse(t *testing.T) {
	q := DefaultQuery()

	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(spotResponseCSV))
	}))
	defer srv.Close()

	metrics, err := observability.NewFetchCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewFetchCollector failed: %v", err)
	}
	client := NewClient(WithBaseURL(srv.URL), WithMetrics(metrics))

	records, stats, err := client.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotQuery != q.SQL() {
		t.Fatalf("server saw query %q, want %q", gotQuery, q.SQL())
	}
	if gotAgent != DefaultUserAgent {
		t.Fatalf("server saw User-Agent %q, want %q", gotAgent, DefaultUserAgent)
	}
	if len(records) != 2 || stats.Loaded != 2 || stats.Skipped != 0 {
		t.Fatalf("Fetch returned %d records with stats %+v, want 2 clean rows", len(records), stats)
	}
	if records[0].TxSign != "VK6XT" || records[1].RxSign != "VK2KRR" {
		t.Fatalf("unexpected call signs in %+v", records)
	}
	if records[0].DistanceKm != 7885 {
		t.Fatalf("records[0].DistanceKm = %v, want 7885", records[0].DistanceKm)
	}

	if got := testutil.ToFloat64(metrics.RequestsTotal); got != 1 {
		t.Fatalf("fetch_requests_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.RowsTotal); got != 2 {
		t.Fatalf("fetch_rows_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.ErrorsTotal); got != 0 {
		t.Fatalf("fetch_errors_total = %v, want 0", got)
	}
}

// TestClientFetchServerError surfaces non-200 responses as errors and counts
// them against the error counter.
func TestClientFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try again later", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	metrics, err := observability.NewFetchCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewFetchCollector failed: %v", err)
	}
	client := NewClient(WithBaseURL(srv.URL), WithMetrics(metrics))

	_, _, err = client.Fetch(context.Background(), DefaultQuery())
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("Fetch error = %v, want status 503", err)
	}

	if got := testutil.ToFloat64(metrics.RequestsTotal); got != 1 {
		t.Fatalf("fetch_requests_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.ErrorsTotal); got != 1 {
		t.Fatalf("fetch_errors_total = %v, want 1", got)
	}
}

// TestClientFetchContextCancellation aborts a slow request through the
// caller's context.
func TestClientFetchContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(WithBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := client.Fetch(ctx, DefaultQuery())
	if err == nil {
		t.Fatalf("Fetch with cancelled context returned nil error")
	}
}
