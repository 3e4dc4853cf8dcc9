package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/metrics"
	"github.com/ThirdAILabs/ndb-client/internal/version"
)

func newTestClient(t *testing.T, baseURL string, m *metrics.HTTP) *Client {
	t.Helper()
	c, err := New(&Config{BaseURL: baseURL, Metrics: m})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:8000", "http://localhost:8000", false},
		{"http://localhost:8000/", "http://localhost:8000", false},
		{"https://ndb.example.com/deploy/42//", "https://ndb.example.com/deploy/42", false},
		{"  http://h  ", "http://h", false},
		{"", "", true},
		{"localhost:8000", "", true},
		{"ftp://h", "", true},
		{"http://", "", true},
		{"http://h/?x=1", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeBaseURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeBaseURL(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeBaseURL(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClient_TrailingSlashPaths(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", nil)
	if _, err := c.Get(context.Background(), "/sources"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/v1/sources" {
		t.Errorf("path = %q, want /api/v1/sources", gotPath)
	}
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); ua != version.UserAgent() {
			t.Errorf("user-agent = %q", ua)
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	got, err := c.PostJSON(context.Background(), "/delete", []byte(`{"source_ids":["a"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"source_ids":["a"]}` {
		t.Errorf("echo = %s", got)
	}
}

func TestClient_ServerErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	for i := 1; i <= 3; i++ {
		_, err := c.PostJSON(context.Background(), "/search", []byte(`{}`))
		var te *domain.TransportError
		if !errors.As(err, &te) {
			t.Fatalf("expected *TransportError, got %T: %v", err, err)
		}
		if !errors.Is(err, domain.ErrTransport) {
			t.Error("errors.Is(err, ErrTransport) = false")
		}
		if te.StatusCode != http.StatusInternalServerError {
			t.Errorf("status = %d", te.StatusCode)
		}
		if !strings.Contains(string(te.Body), "boom") {
			t.Errorf("body = %q", te.Body)
		}
		if got := calls.Load(); got != int32(i) {
			t.Fatalf("calls = %d after %d requests, want one per call", got, i)
		}
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := newTestClient(t, addr, nil)
	_, err := c.Get(context.Background(), "/sources")
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if te.StatusCode != 0 || te.Err == nil {
		t.Errorf("transport error = %+v", te)
	}
}

func TestClient_PostMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if err != nil {
			t.Errorf("multipart reader: %v", err)
			return
		}
		var names []string
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("next part: %v", err)
				return
			}
			data, _ := io.ReadAll(p)
			names = append(names, p.FormName())
			switch p.FormName() {
			case "file":
				if p.FileName() != "doc.csv" || string(data) != "a,b\n1,2\n" {
					t.Errorf("file part = %q %q", p.FileName(), data)
				}
				if ct := p.Header.Get("Content-Type"); ct != "application/octet-stream" {
					t.Errorf("file content-type = %q", ct)
				}
			case "metadata":
				if ct := p.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("metadata content-type = %q", ct)
				}
				if string(data) != `{"k":1}` {
					t.Errorf("metadata = %s", data)
				}
			}
		}
		if strings.Join(names, ",") != "file,metadata" {
			t.Errorf("parts = %v", names)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	got, err := c.PostMultipart(context.Background(), "/insert", []Part{
		{Name: "file", Filename: "doc.csv", Body: strings.NewReader("a,b\n1,2\n")},
		{Name: "metadata", ContentType: "application/json", Body: strings.NewReader(`{"k":1}`)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"success":true}` {
		t.Errorf("body = %s", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestClient_PostMultipart_ReaderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.PostMultipart(context.Background(), "/insert", []Part{
		{Name: "file", Filename: "x", Body: failingReader{}},
	})
	if err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("err = %v, want reader failure", err)
	}
}

func TestClient_PostMultipart_EarlyReject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too large", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	big := strings.NewReader(strings.Repeat("x", 4<<20))
	_, err := c.PostMultipart(context.Background(), "/insert", []Part{{Name: "file", Filename: "big", Body: big}})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTP(reg)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/upvote" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, m)
	_, _ = c.Get(context.Background(), "/sources")
	_, _ = c.Get(context.Background(), "/sources")
	_, _ = c.PostJSON(context.Background(), "/upvote", []byte(`{}`))

	want := `
# HELP ndb_client_http_requests_total Total HTTP requests sent to the NDB server by endpoint and status code.
# TYPE ndb_client_http_requests_total counter
ndb_client_http_requests_total{code="200",endpoint="/sources"} 2
ndb_client_http_requests_total{code="400",endpoint="/upvote"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "ndb_client_http_requests_total"); err != nil {
		t.Error(err)
	}
}
