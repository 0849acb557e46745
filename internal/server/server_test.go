package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/echoprobe/internal/resultlog"
	"github.com/hazz-dev/echoprobe/internal/server"
)

// mockStore implements server.HistoryStore for testing.
type mockStore struct {
	entries []resultlog.Entry
	err     error
}

func (m *mockStore) LoadAll(_ context.Context) ([]resultlog.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func makeEntry(state string, at time.Time, ok bool) resultlog.Entry {
	e := resultlog.Entry{
		Version:      resultlog.CurrentVersion,
		Timestamp:    at,
		PingedURL:    "http://svc/api/health?state=" + state,
		RequestState: state,
		PingResult:   resultlog.PingSuccess,
		EmailResult:  resultlog.EmailNotSent,
	}
	if !ok {
		e.PingResult = resultlog.PingFailure
		e.PingError = "got error response 500 Internal Server Error from server"
		e.EmailResult = resultlog.EmailSentSuccessfully
	}
	return e
}

func doRequest(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decoding JSON response: %v", err)
	}
}

type historyBody struct {
	Data struct {
		ShowTable bool `json:"show_table"`
		Rows      []struct {
			RequestState string `json:"request_state"`
			PingColor    string `json:"ping_color"`
			PingError    string `json:"ping_error"`
		} `json:"rows"`
		Total int `json:"total"`
	} `json:"data"`
	Error string `json:"error"`
}

func TestHealthz(t *testing.T) {
	s := server.New(&mockStore{}, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/healthz")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %q", w.Body.String())
	}
}

func TestDashboard_RendersTable(t *testing.T) {
	store := &mockStore{entries: []resultlog.Entry{
		makeEntry("older00", t0, true),
		makeEntry("newer00", t0.Add(time.Minute), false),
	}}
	s := server.New(store, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<table>") {
		t.Error("expected a table")
	}
	if strings.Index(body, "newer00") > strings.Index(body, "older00") {
		t.Error("expected newest entry first")
	}
}

func TestDashboard_EmptyState(t *testing.T) {
	s := server.New(&mockStore{entries: []resultlog.Entry{}}, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<table>") {
		t.Error("empty history must not render a table")
	}
	if !strings.Contains(w.Body.String(), "No health checks have been recorded yet.") {
		t.Error("expected empty-state message")
	}
}

func TestDashboard_StoreError(t *testing.T) {
	s := server.New(&mockStore{err: resultlog.ErrNotRegularFile}, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestDashboard_ServesStylesheet(t *testing.T) {
	s := server.New(&mockStore{}, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/assets/style.css")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestHistory_JSON(t *testing.T) {
	store := &mockStore{entries: []resultlog.Entry{
		makeEntry("older00", t0, true),
		makeEntry("newer00", t0.Add(time.Minute), false),
	}}
	s := server.New(store, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/api/history")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}
	var resp historyBody
	decodeJSON(t, w, &resp)
	if !resp.Data.ShowTable || resp.Data.Total != 2 || len(resp.Data.Rows) != 2 {
		t.Fatalf("unexpected response %+v", resp.Data)
	}
	if resp.Data.Rows[0].RequestState != "newer00" || resp.Data.Rows[0].PingColor != "error" {
		t.Errorf("unexpected first row %+v", resp.Data.Rows[0])
	}
	if resp.Data.Rows[1].PingError != "No error" {
		t.Errorf("expected placeholder, got %q", resp.Data.Rows[1].PingError)
	}
}

func TestHistory_Empty(t *testing.T) {
	s := server.New(&mockStore{entries: []resultlog.Entry{}}, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/api/history")

	var resp historyBody
	decodeJSON(t, w, &resp)
	if resp.Error != "" {
		t.Errorf("expected no error, got %q", resp.Error)
	}
	if resp.Data.ShowTable || resp.Data.Total != 0 {
		t.Errorf("expected empty-state response, got %+v", resp.Data)
	}
}

func TestHistory_Pagination(t *testing.T) {
	var entries []resultlog.Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, makeEntry("tok000"+string(rune('0'+i)), t0.Add(time.Duration(i)*time.Minute), true))
	}
	s := server.New(&mockStore{entries: entries}, nil, nil)

	w := doRequest(t, s.Router(), "GET", "/api/history?limit=3&offset=2")
	var resp historyBody
	decodeJSON(t, w, &resp)
	if resp.Data.Total != 10 {
		t.Errorf("expected total 10, got %d", resp.Data.Total)
	}
	if len(resp.Data.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(resp.Data.Rows))
	}
	if resp.Data.Rows[0].RequestState != "tok0007" {
		t.Errorf("expected tok0007, got %q", resp.Data.Rows[0].RequestState)
	}

	w = doRequest(t, s.Router(), "GET", "/api/history?offset=50")
	resp = historyBody{}
	decodeJSON(t, w, &resp)
	if len(resp.Data.Rows) != 0 {
		t.Errorf("expected no rows past the end, got %d", len(resp.Data.Rows))
	}
}

func TestHistory_InvalidParams(t *testing.T) {
	s := server.New(&mockStore{}, nil, nil)
	for _, path := range []string{"/api/history?limit=bad", "/api/history?offset=-1"} {
		w := doRequest(t, s.Router(), "GET", path)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestHistory_StoreError(t *testing.T) {
	s := server.New(&mockStore{err: errors.New("disk on fire")}, nil, nil)
	w := doRequest(t, s.Router(), "GET", "/api/history")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	var resp historyBody
	decodeJSON(t, w, &resp)
	if resp.Error != "result log unavailable" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestHistory_CORS(t *testing.T) {
	s := server.New(&mockStore{entries: []resultlog.Entry{}}, nil, nil)
	req := httptest.NewRequest("GET", "/api/history", nil)
	req.Header.Set("Origin", "https://status.example.com")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected Access-Control-Allow-Origin *, got %q", got)
	}
}
