// Package remote is the HTTP/JSON adapter for the tracker backend. It
// carries no business logic: every method is one typed call against the
// wire contract, with errors mapped into the app taxonomy.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/syssla/internal/app"
	"github.com/hylla/syssla/internal/domain"
)

// maxErrorBody caps how much of a failed response is kept for error text.
const maxErrorBody = 512

// Client calls the tracker backend. It never retries and configures no
// timeout of its own; cancellation comes from the caller's context.
type Client struct {
	baseURL   string
	http      *http.Client
	log       *charmLog.Logger
	requestID func() string
}

// Options defines optional settings for the client.
type Options struct {
	HTTPClient *http.Client
	Logger     *charmLog.Logger
	RequestID  func() string
}

// New constructs a client for the given backend base URL.
func New(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("server base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid server base URL %q", baseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	requestID := opts.RequestID
	if requestID == nil {
		requestID = uuid.NewString
	}
	return &Client{
		baseURL:   baseURL,
		http:      httpClient,
		log:       logger,
		requestID: requestID,
	}, nil
}

// taskWire mirrors the backend task payload. Order may be absent in older
// payloads; the zero value keeps fetch order as the tie-break.
type taskWire struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Order  int    `json:"order"`
}

// habitWire mirrors the backend habit payload.
type habitWire struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Days  []string `json:"days"`
	Dates []string `json:"dates"`
}

// dayRecordWire mirrors one history aggregate. A null completionRate means
// no habits were scheduled that day.
type dayRecordWire struct {
	CompletedTasks  []string `json:"completedTasks"`
	CompletedHabits []string `json:"completedHabits"`
	JournalEntries  []string `json:"journalEntries"`
	CompletionRate  *float64 `json:"completionRate"`
}

// updateTaskWire mirrors the task update response.
type updateTaskWire struct {
	Success bool      `json:"success"`
	Deleted bool      `json:"deleted"`
	Task    *taskWire `json:"task"`
}

// ListTasks fetches every task on the board.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var wire []taskWire
	if err := c.do(ctx, "list tasks", http.MethodGet, "/api/tasks", nil, &wire); err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, taskFromWire(w))
	}
	return tasks, nil
}

// CreateTask submits a new card for a column.
func (c *Client) CreateTask(ctx context.Context, title string, status domain.Status) (domain.Task, error) {
	body := map[string]any{"title": title, "status": string(status)}
	var wire taskWire
	if err := c.do(ctx, "create task", http.MethodPost, "/api/tasks", body, &wire); err != nil {
		return domain.Task{}, err
	}
	return taskFromWire(wire), nil
}

// UpdateTask sends a partial task update. The server deletes the task and
// reports deleted=true when the submitted title trims to empty.
func (c *Client) UpdateTask(ctx context.Context, id int, patch app.TaskPatch) (app.UpdateTaskResult, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Status != nil {
		body["status"] = string(*patch.Status)
	}
	var wire updateTaskWire
	if err := c.do(ctx, "update task", http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), body, &wire); err != nil {
		return app.UpdateTaskResult{}, err
	}
	result := app.UpdateTaskResult{Deleted: wire.Deleted}
	if wire.Task != nil {
		task := taskFromWire(*wire.Task)
		result.Task = &task
	}
	return result, nil
}

// ReorderColumn replaces a column's internal ordering. Idempotent on the
// server side.
func (c *Client) ReorderColumn(ctx context.Context, status domain.Status, orderedIDs []int) error {
	body := map[string]any{"order": orderedIDs, "status": string(status)}
	return c.do(ctx, "reorder column", http.MethodPut, "/api/tasks/order", body, nil)
}

// ArchiveFinished moves every finished task into the archive.
func (c *Client) ArchiveFinished(ctx context.Context) error {
	return c.do(ctx, "archive finished", http.MethodPost, "/api/tasks/archive", map[string]any{}, nil)
}

// ListHabits fetches every habit with its schedule and completion history.
// Malformed weekday codes and dates are validation gaps: skipped with a
// debug log, never surfaced as errors.
func (c *Client) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	var wire []habitWire
	if err := c.do(ctx, "list habits", http.MethodGet, "/api/habits", nil, &wire); err != nil {
		return nil, err
	}
	habits := make([]domain.Habit, 0, len(wire))
	for _, w := range wire {
		habits = append(habits, c.habitFromWire(w))
	}
	return habits, nil
}

// CreateHabit submits a new habit with its weekday schedule.
func (c *Client) CreateHabit(ctx context.Context, name string, days []domain.Weekday) (domain.Habit, error) {
	wireDays := make([]string, 0, len(days))
	for _, day := range days {
		wireDays = append(wireDays, string(day))
	}
	body := map[string]any{"name": name, "days": wireDays}
	var wire habitWire
	if err := c.do(ctx, "create habit", http.MethodPost, "/api/habits", body, &wire); err != nil {
		return domain.Habit{}, err
	}
	return c.habitFromWire(wire), nil
}

// ToggleHabit flips a habit's completion for one date and returns the
// server's success flag.
func (c *Client) ToggleHabit(ctx context.Context, id int, date domain.Date) (bool, error) {
	body := map[string]any{"toggle_date": string(date)}
	var wire struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, "toggle habit", http.MethodPut, fmt.Sprintf("/api/habits/%d", id), body, &wire); err != nil {
		return false, err
	}
	return wire.Success, nil
}

// DeleteHabit removes a habit and its history.
func (c *Client) DeleteHabit(ctx context.Context, id int) error {
	return c.do(ctx, "delete habit", http.MethodDelete, fmt.Sprintf("/api/habits/%d", id), nil, nil)
}

// History fetches the per-date aggregates, optionally filtered to a year.
// Dates that fail to parse are dropped with a debug log.
func (c *Client) History(ctx context.Context, year int) (map[domain.Date]domain.DayRecord, error) {
	path := "/api/history"
	if year > 0 {
		path = fmt.Sprintf("/api/history?year=%d", year)
	}
	var wire map[string]dayRecordWire
	if err := c.do(ctx, "fetch history", http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}
	records := make(map[domain.Date]domain.DayRecord, len(wire))
	for raw, w := range wire {
		date, err := domain.ParseDate(raw)
		if err != nil {
			c.log.Debug("skipping history entry with malformed date", "date", raw)
			continue
		}
		record := domain.DayRecord{
			CompletedTasks:  w.CompletedTasks,
			CompletedHabits: w.CompletedHabits,
			JournalEntries:  w.JournalEntries,
		}
		if w.CompletionRate != nil {
			record.CompletionRate = *w.CompletionRate
			record.RateKnown = true
		}
		records[date] = record
	}
	return records, nil
}

// taskFromWire maps a wire task onto the domain type. Status validity is
// the board model's concern, not the adapter's.
func taskFromWire(w taskWire) domain.Task {
	return domain.Task{
		ID:     w.ID,
		Title:  w.Title,
		Status: domain.Status(strings.TrimSpace(strings.ToLower(w.Status))),
		Order:  w.Order,
	}
}

// habitFromWire maps a wire habit onto the domain type, skipping malformed
// schedule and history entries.
func (c *Client) habitFromWire(w habitWire) domain.Habit {
	habit := domain.Habit{ID: w.ID, Name: w.Name}
	for _, raw := range w.Days {
		day, err := domain.ParseWeekday(raw)
		if err != nil {
			c.log.Debug("skipping malformed weekday code", "habit_id", w.ID, "day", raw)
			continue
		}
		habit.Days = append(habit.Days, day)
	}
	sort.Slice(habit.Days, func(i, j int) bool { return habit.Days[i] < habit.Days[j] })
	for _, raw := range w.Dates {
		date, err := domain.ParseDate(raw)
		if err != nil {
			c.log.Debug("skipping malformed completion date", "habit_id", w.ID, "date", raw)
			continue
		}
		habit.Dates = append(habit.Dates, date)
	}
	return habit
}

// do issues one request and decodes the response. Transport failures map
// to *app.NetworkError, non-2xx responses to *app.ServerError; no retries.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &app.NetworkError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &app.NetworkError{Op: op, Err: err}
	}
	requestID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed before reaching the server", "op", op, "request_id", requestID, "err", err)
		return &app.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Debug("server rejected request", "op", op, "request_id", requestID, "status", resp.StatusCode)
		return &app.ServerError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &app.ServerError{Op: op, StatusCode: resp.StatusCode, Body: "malformed response body"}
	}
	c.log.Debug("request complete", "op", op, "request_id", requestID, "status", resp.StatusCode)
	return nil
}
