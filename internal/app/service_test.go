package app

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hylla/syssla/internal/board"
	"github.com/hylla/syssla/internal/domain"
)

type remoteCall struct {
	op     string
	id     int
	status domain.Status
	ids    []int
}

type fakeRemote struct {
	tasks       []domain.Task
	habits      []domain.Habit
	history     map[domain.Date]domain.DayRecord
	calls       []remoteCall
	err         error
	toggleOK    bool
	deleteTitle bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{toggleOK: true}
}

func (f *fakeRemote) record(c remoteCall) {
	f.calls = append(f.calls, c)
}

func (f *fakeRemote) ListTasks(context.Context) ([]domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Task(nil), f.tasks...), nil
}

func (f *fakeRemote) CreateTask(_ context.Context, title string, status domain.Status) (domain.Task, error) {
	if f.err != nil {
		return domain.Task{}, f.err
	}
	task := domain.Task{ID: len(f.tasks) + 1, Title: title, Status: status, Order: len(f.tasks)}
	f.tasks = append(f.tasks, task)
	f.record(remoteCall{op: "create", status: status})
	return task, nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, id int, patch TaskPatch) (UpdateTaskResult, error) {
	if f.err != nil {
		return UpdateTaskResult{}, f.err
	}
	call := remoteCall{op: "update", id: id}
	if patch.Status != nil {
		call.status = *patch.Status
	}
	f.record(call)
	if patch.Title != nil && *patch.Title == "" {
		f.deleteTitle = true
		return UpdateTaskResult{Deleted: true}, nil
	}
	return UpdateTaskResult{}, nil
}

func (f *fakeRemote) ReorderColumn(_ context.Context, status domain.Status, ids []int) error {
	if f.err != nil {
		return f.err
	}
	f.record(remoteCall{op: "reorder", status: status, ids: ids})
	return nil
}

func (f *fakeRemote) ArchiveFinished(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.record(remoteCall{op: "archive"})
	return nil
}

func (f *fakeRemote) ListHabits(context.Context) ([]domain.Habit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Habit(nil), f.habits...), nil
}

func (f *fakeRemote) CreateHabit(_ context.Context, name string, days []domain.Weekday) (domain.Habit, error) {
	if f.err != nil {
		return domain.Habit{}, f.err
	}
	habit := domain.Habit{ID: len(f.habits) + 1, Name: name, Days: days}
	f.habits = append(f.habits, habit)
	return habit, nil
}

func (f *fakeRemote) ToggleHabit(_ context.Context, id int, date domain.Date) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.record(remoteCall{op: "toggle", id: id})
	return f.toggleOK, nil
}

func (f *fakeRemote) DeleteHabit(_ context.Context, id int) error {
	if f.err != nil {
		return f.err
	}
	f.record(remoteCall{op: "delete-habit", id: id})
	return nil
}

func (f *fakeRemote) History(context.Context, int) (map[domain.Date]domain.DayRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)
}

func TestRefreshBoardDropsUnknownStatuses(t *testing.T) {
	remote := newFakeRemote()
	remote.tasks = []domain.Task{
		{ID: 1, Title: "keep", Status: domain.StatusWeek},
		{ID: 2, Title: "drop", Status: domain.Status("archived")},
	}
	svc := NewService(remote, fixedClock, nil)

	b, err := svc.RefreshBoard(context.Background())
	if err != nil {
		t.Fatalf("RefreshBoard() error = %v", err)
	}
	if _, ok := b.Task(1); !ok {
		t.Fatal("known-status task missing from board")
	}
	if _, ok := b.Task(2); ok {
		t.Fatal("unknown-status task must be dropped from the board")
	}
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	remote := newFakeRemote()
	svc := NewService(remote, fixedClock, nil)

	if _, err := svc.CreateTask(context.Background(), "   ", domain.StatusWeek); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if len(remote.calls) != 0 {
		t.Fatal("empty title must not reach the network")
	}
}

func TestCreateTaskTrimsTitle(t *testing.T) {
	remote := newFakeRemote()
	svc := NewService(remote, fixedClock, nil)

	task, err := svc.CreateTask(context.Background(), "  Buy milk  ", domain.StatusWeek)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Title != "Buy milk" {
		t.Fatalf("unexpected title %q", task.Title)
	}
	if task.Status != domain.StatusWeek {
		t.Fatalf("unexpected status %q", task.Status)
	}
}

func TestSubmitTitleReportsDeletion(t *testing.T) {
	remote := newFakeRemote()
	svc := NewService(remote, fixedClock, nil)

	deleted, err := svc.SubmitTitle(context.Background(), 7, "   ")
	if err != nil {
		t.Fatalf("SubmitTitle() error = %v", err)
	}
	if !deleted {
		t.Fatal("empty title must report deletion")
	}

	deleted, err = svc.SubmitTitle(context.Background(), 7, "renamed")
	if err != nil {
		t.Fatalf("SubmitTitle() error = %v", err)
	}
	if deleted {
		t.Fatal("non-empty title must not report deletion")
	}
}

func TestMoveTaskRejectsIllegalTransition(t *testing.T) {
	remote := newFakeRemote()
	svc := NewService(remote, fixedClock, nil)

	err := svc.MoveTask(context.Background(), 1, domain.StatusWeek, domain.StatusFinished)
	if err == nil {
		t.Fatal("week -> finished must be rejected")
	}
	if len(remote.calls) != 0 {
		t.Fatal("rejected transition must not reach the network")
	}

	if err := svc.MoveTask(context.Background(), 1, domain.StatusToday, domain.StatusFinished); err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
}

func TestCommitDropCrossColumn(t *testing.T) {
	remote := newFakeRemote()
	svc := NewService(remote, fixedClock, nil)

	plan := board.DropPlan{
		TaskID:     3,
		From:       domain.StatusWeek,
		To:         domain.StatusToday,
		OrderedIDs: []int{5, 3, 6},
	}
	if err := svc.CommitDrop(context.Background(), plan); err != nil {
		t.Fatalf("CommitDrop() error = %v", err)
	}
	if len(remote.calls) != 2 {
		t.Fatalf("expected status update then reorder, got %v", remote.calls)
	}
	if remote.calls[0].op != "update" || remote.calls[0].status != domain.StatusToday {
		t.Fatalf("first call must update the dragged task's status, got %v", remote.calls[0])
	}
	if remote.calls[1].op != "reorder" || !slices.Equal(remote.calls[1].ids, []int{5, 3, 6}) {
		t.Fatalf("second call must persist the destination order, got %v", remote.calls[1])
	}
}

func TestCommitDropSameColumnSkipsStatusUpdate(t *testing.T) {
	remote := newFakeRemote()
	svc := NewService(remote, fixedClock, nil)

	plan := board.DropPlan{
		TaskID:     3,
		From:       domain.StatusWeek,
		To:         domain.StatusWeek,
		OrderedIDs: []int{3, 1},
	}
	if err := svc.CommitDrop(context.Background(), plan); err != nil {
		t.Fatalf("CommitDrop() error = %v", err)
	}
	if len(remote.calls) != 1 || remote.calls[0].op != "reorder" {
		t.Fatalf("pure reorder must issue exactly one reorder call, got %v", remote.calls)
	}
}

func TestToggleHabitRejectedByServer(t *testing.T) {
	remote := newFakeRemote()
	remote.toggleOK = false
	svc := NewService(remote, fixedClock, nil)

	err := svc.ToggleHabit(context.Background(), 2, "2026-08-26")
	if !errors.Is(err, ErrToggleRejected) {
		t.Fatalf("expected ErrToggleRejected, got %v", err)
	}
}

func TestToggleHabitNetworkFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.err = &NetworkError{Op: "toggle habit", Err: errors.New("connection refused")}
	svc := NewService(remote, fixedClock, nil)

	err := svc.ToggleHabit(context.Background(), 2, "2026-08-26")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestCreateHabitValidatesInput(t *testing.T) {
	remote := newFakeRemote()
	svc := NewService(remote, fixedClock, nil)

	if _, err := svc.CreateHabit(context.Background(), " ", []domain.Weekday{"1"}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	habit, err := svc.CreateHabit(context.Background(), "Stretch", []domain.Weekday{"3", "3", "1"})
	if err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	if !slices.Equal(habit.Days, []domain.Weekday{"1", "3"}) {
		t.Fatalf("unexpected normalized days %v", habit.Days)
	}
}

func TestServiceToday(t *testing.T) {
	svc := NewService(newFakeRemote(), fixedClock, nil)
	if svc.Today() != domain.Date("2026-08-26") {
		t.Fatalf("unexpected today %q", svc.Today())
	}
}
