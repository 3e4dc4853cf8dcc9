package ndbtest

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/ThirdAILabs/ndb-client/internal/wire"
)

func post(t *testing.T, url, contentType string, body io.Reader) (int, []byte) {
	t.Helper()
	resp, err := http.Post(url, contentType, body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func insert(t *testing.T, s *Server, filename, content, metadata string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", filename)
	_, _ = fw.Write([]byte(content))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="metadata"`)
	h.Set("Content-Type", "application/json")
	pw, _ := mw.CreatePart(h)
	_, _ = pw.Write([]byte(metadata))
	_ = mw.Close()

	status, body := post(t, s.URL+"/api/v1/insert", mw.FormDataContentType(), &buf)
	if status != http.StatusOK {
		t.Fatalf("insert status %d: %s", status, body)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestServer_InsertSourcesDelete(t *testing.T) {
	s := NewServer(nil)
	defer s.Close()

	first := insert(t, s, "a.txt", "hello world", `{"filename":"a.txt","text_columns":[]}`)
	if id, _ := first["source_id"].(string); id == "" {
		t.Fatalf("expected generated source_id, got %v", first)
	}
	insert(t, s, "b.txt", "bye", `{"filename":"b.txt","source_id":"b","text_columns":[]}`)
	again := insert(t, s, "b.txt", "bye again", `{"filename":"b.txt","source_id":"b","text_columns":[]}`)
	if v, _ := again["version"].(float64); v != 2 {
		t.Errorf("re-insert version = %v, want 2", again["version"])
	}

	resp, err := http.Get(s.URL + "/api/v1/sources")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	sources, err := wire.DecodeSources(data)
	if err != nil {
		t.Fatalf("decode sources %s: %v", data, err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}

	status, _ := post(t, s.URL+"/api/v1/delete", "application/json", strings.NewReader(`{"source_ids":["b"]}`))
	if status != http.StatusOK {
		t.Fatalf("delete status %d", status)
	}
	if got := s.Deleted(); len(got) != 1 || got[0] != "b" {
		t.Errorf("deleted = %v", got)
	}
	if got := s.Uploads(); len(got) != 3 || got[0].MetadataContentType != "application/json" {
		t.Errorf("uploads = %+v", got)
	}
}

func TestServer_SearchMatchesContent(t *testing.T) {
	s := NewServer(nil)
	defer s.Close()
	insert(t, s, "a.txt", "The quick brown fox", `{"filename":"a.txt","text_columns":[],"doc_metadata":{"year":2020}}`)
	insert(t, s, "b.txt", "lazy dog", `{"filename":"b.txt","text_columns":[]}`)

	status, body := post(t, s.URL+"/api/v1/search", "application/json", strings.NewReader(`{"query":"quick","top_k":5}`))
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	resp, err := wire.DecodeSearchResponse(body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Len() != 1 || resp.References()[0].Source() != "a.txt" {
		t.Errorf("references = %+v", resp.References())
	}
	if got := resp.References()[0].Metadata()["year"].Int(); got != 2020 {
		t.Errorf("metadata year = %d", got)
	}
	if n := len(s.Searches()); n != 1 {
		t.Errorf("searches = %d", n)
	}
}

func TestServer_RejectsInvalidRequest(t *testing.T) {
	s := NewServer(nil)
	defer s.Close()

	status, body := post(t, s.URL+"/api/v1/search", "application/json",
		strings.NewReader(`{"query":"q","constraints":{"k":{"constraint_type":"Between","value":1,"dtype":"int"}}}`))
	if status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", status)
	}
	if !strings.Contains(string(body), "constraint_type") {
		t.Errorf("body = %s", body)
	}
}

func TestServer_OverrideAndCalls(t *testing.T) {
	s := NewServer(nil)
	defer s.Close()
	s.Respond("/upvote", http.StatusInternalServerError, `{"detail":"down"}`)

	for i := 0; i < 2; i++ {
		status, _ := post(t, s.URL+"/api/v1/upvote", "application/json", strings.NewReader(`{"query_id_pairs":[]}`))
		if status != http.StatusInternalServerError {
			t.Errorf("status = %d", status)
		}
	}
	if got := s.Calls("/upvote"); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}

	s.Reset()
	status, _ := post(t, s.URL+"/api/v1/upvote", "application/json",
		strings.NewReader(`{"query_id_pairs":[{"query_id":1,"reference_id":2}]}`))
	if status != http.StatusOK {
		t.Errorf("status after reset = %d", status)
	}
	if s.TotalCalls() != 1 || len(s.Upvotes()) != 1 {
		t.Errorf("calls = %d, upvotes = %v", s.TotalCalls(), s.Upvotes())
	}
}

func TestServer_Checkpoint(t *testing.T) {
	s := NewServer(nil)
	defer s.Close()

	checkpoint := func() (int, bool) {
		t.Helper()
		status, body := post(t, s.URL+"/api/v1/checkpoint", "application/json", http.NoBody)
		if status != http.StatusOK {
			t.Fatalf("status %d", status)
		}
		res, err := wire.DecodeCheckpoint(body)
		if err != nil {
			t.Fatal(err)
		}
		return res.Version(), res.NewCheckpoint()
	}

	if v, created := checkpoint(); v != 0 || created {
		t.Errorf("empty checkpoint = %d %v", v, created)
	}
	insert(t, s, "a.txt", "x", `{"filename":"a.txt","text_columns":[]}`)
	if v, created := checkpoint(); v != 1 || !created {
		t.Errorf("after insert = %d %v", v, created)
	}
	if v, created := checkpoint(); v != 1 || created {
		t.Errorf("unchanged = %d %v", v, created)
	}
}

func TestNew_RouterWithMiddleware(t *testing.T) {
	s := New(nil)
	defer s.Close()

	var seen []string
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	rr := httptest.NewRecorder()
	s.Router(tag).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sources", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("sources = %s", rr.Body)
	}
	if len(seen) != 1 || seen[0] != "/api/v1/sources" {
		t.Errorf("middleware saw %v", seen)
	}
	if s.Calls("/sources") != 1 {
		t.Errorf("calls = %d", s.Calls("/sources"))
	}
}
