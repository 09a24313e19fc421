package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hylla/syssla/internal/app"
	"github.com/hylla/syssla/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(server.URL, Options{RequestID: func() string { return "test-request" }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a url", "/just/a/path"} {
		if _, err := New(raw, Options{}); err == nil {
			t.Errorf("New(%q): expected error", raw)
		}
	}
}

func TestListTasksDecodesAndSetsHeaders(t *testing.T) {
	var gotRequestID string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[
			{"id": 2, "title": "write report", "status": "In-Progress", "order": 1},
			{"id": 5, "title": "buy milk", "status": "to-do-today"}
		]`))
	}))

	tasks, err := client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if gotRequestID != "test-request" {
		t.Errorf("X-Request-ID = %q, want %q", gotRequestID, "test-request")
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Status != domain.StatusInProgress {
		t.Errorf("status not normalized: got %q", tasks[0].Status)
	}
	if tasks[1].Order != 0 {
		t.Errorf("missing order should decode to 0, got %d", tasks[1].Order)
	}
}

func TestUpdateTaskReportsDeletion(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["title"] != "" {
			t.Errorf("title = %v, want empty string", body["title"])
		}
		_, _ = w.Write([]byte(`{"success": true, "deleted": true}`))
	}))

	title := ""
	result, err := client.UpdateTask(context.Background(), 7, app.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !result.Deleted {
		t.Error("expected deletion to be reported")
	}
	if result.Task != nil {
		t.Error("deleted task should carry no task payload")
	}
}

func TestUpdateTaskOmitsUnsetFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if _, ok := body["title"]; ok {
			t.Error("title should be absent from a status-only patch")
		}
		if body["status"] != "finished" {
			t.Errorf("status = %v, want finished", body["status"])
		}
		_, _ = w.Write([]byte(`{"success": true, "deleted": false, "task": {"id": 3, "title": "ship it", "status": "finished", "order": 0}}`))
	}))

	status := domain.StatusFinished
	result, err := client.UpdateTask(context.Background(), 3, app.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if result.Task == nil || result.Task.Status != domain.StatusFinished {
		t.Errorf("task payload not decoded: %+v", result.Task)
	}
}

func TestReorderColumnSendsListContract(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Order  []int  `json:"order"`
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Status != "to-do-today" {
			t.Errorf("status = %q", body.Status)
		}
		if len(body.Order) != 3 || body.Order[0] != 4 || body.Order[1] != 1 || body.Order[2] != 9 {
			t.Errorf("order = %v, want [4 1 9]", body.Order)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.ReorderColumn(context.Background(), domain.StatusToday, []int{4, 1, 9}); err != nil {
		t.Fatalf("ReorderColumn: %v", err)
	}
}

func TestToggleHabitReturnsServerFlag(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/habits/3" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["toggle_date"] != "2026-08-26" {
			t.Errorf("toggle_date = %q", body["toggle_date"])
		}
		_, _ = w.Write([]byte(`{"success": false}`))
	}))

	ok, err := client.ToggleHabit(context.Background(), 3, domain.Date("2026-08-26"))
	if err != nil {
		t.Fatalf("ToggleHabit: %v", err)
	}
	if ok {
		t.Error("expected the server's rejection to surface as ok=false")
	}
}

func TestListHabitsSkipsMalformedEntries(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "stretch", "days": ["1", "monday", "3"], "dates": ["2026-02-01", "yesterday"]}
		]`))
	}))

	habits, err := client.ListHabits(context.Background())
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("got %d habits, want 1", len(habits))
	}
	if len(habits[0].Days) != 2 {
		t.Errorf("days = %v, want the two valid codes", habits[0].Days)
	}
	if len(habits[0].Dates) != 1 || habits[0].Dates[0] != domain.Date("2026-02-01") {
		t.Errorf("dates = %v, want the one valid date", habits[0].Dates)
	}
}

func TestHistoryYearFilterAndNullRate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("year") != "2025" {
			t.Errorf("year query = %q, want 2025", r.URL.Query().Get("year"))
		}
		_, _ = w.Write([]byte(`{
			"2025-03-10": {"completedTasks": ["a"], "completedHabits": [], "journalEntries": ["note"], "completionRate": null},
			"2025-03-11": {"completedTasks": [], "completedHabits": ["b"], "journalEntries": [], "completionRate": 0.5},
			"not-a-date": {"completedTasks": [], "completedHabits": [], "journalEntries": [], "completionRate": 1}
		}`))
	}))

	records, err := client.History(context.Background(), 2025)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want malformed date dropped", len(records))
	}
	day := records[domain.Date("2025-03-10")]
	if day.RateKnown {
		t.Error("null completionRate should leave RateKnown false")
	}
	known := records[domain.Date("2025-03-11")]
	if !known.RateKnown || known.CompletionRate != 0.5 {
		t.Errorf("rate = %v known=%v, want 0.5 known", known.CompletionRate, known.RateKnown)
	}
}

func TestHistoryOmitsYearWhenUnfiltered(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{}`))
	}))

	if _, err := client.History(context.Background(), 0); err != nil {
		t.Fatalf("History: %v", err)
	}
}

func TestServerFailureMapsToServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "boom"}`))
	}))

	err := client.ArchiveFinished(context.Background())
	var serverErr *app.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected *app.ServerError, got %v", err)
	}
	if serverErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", serverErr.StatusCode)
	}
	if serverErr.Body == "" {
		t.Error("expected the response snippet to be kept")
	}
}

func TestTransportFailureMapsToNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client, err := New(server.URL, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	server.Close()

	_, err = client.ListTasks(context.Background())
	var netErr *app.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *app.NetworkError, got %v", err)
	}
	if netErr.Op != "list tasks" {
		t.Errorf("op = %q", netErr.Op)
	}
}

func TestMalformedResponseBodyIsAServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))

	_, err := client.ListTasks(context.Background())
	var serverErr *app.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected *app.ServerError, got %v", err)
	}
}
