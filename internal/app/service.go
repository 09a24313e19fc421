package app

import (
	"context"
	"fmt"
	"io"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/syssla/internal/board"
	"github.com/hylla/syssla/internal/domain"
)

// Clock returns the current time.
type Clock func() time.Time

// Service wraps the remote store with the client-side interaction policies:
// full-replace refreshes, optimistic mutations, and resync on failure. It
// performs no locking; overlapping in-flight calls are resolved by the
// last response applied, with refresh-as-full-replace as the race defense.
type Service struct {
	remote Remote
	clock  Clock
	log    *charmLog.Logger
}

// NewService constructs a new value for this package.
func NewService(remote Remote, clock Clock, logger *charmLog.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	return &Service{remote: remote, clock: clock, log: logger}
}

// Today returns the current local calendar date.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.clock())
}

// RefreshBoard fetches all tasks and rebuilds the board as a full replace.
// Tasks with unknown statuses are dropped from the returned board and
// logged; the fetch itself is the only failure mode.
func (s *Service) RefreshBoard(ctx context.Context) (*board.Board, error) {
	tasks, err := s.remote.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh board: %w", err)
	}
	b := board.New()
	for _, task := range b.Rebuild(tasks) {
		s.log.Warn("dropping task with unknown status", "task_id", task.ID, "status", task.Status)
	}
	return b, nil
}

// CreateTask validates and submits a new card. An empty-after-trim title is
// a local validation gap, rejected before any network traffic.
func (s *Service) CreateTask(ctx context.Context, title string, status domain.Status) (domain.Task, error) {
	title = domain.NormalizeTitle(title)
	if title == "" {
		return domain.Task{}, ErrEmptyTitle
	}
	if !status.Valid() {
		return domain.Task{}, domain.ErrUnknownStatus
	}
	task, err := s.remote.CreateTask(ctx, title, status)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// SubmitTitle submits an edited card title. The server deletes the task
// when the trimmed title is empty; deleted=true tells the caller to remove
// the card locally without a board refresh.
func (s *Service) SubmitTitle(ctx context.Context, id int, title string) (deleted bool, err error) {
	title = domain.NormalizeTitle(title)
	result, err := s.remote.UpdateTask(ctx, id, TaskPatch{Title: &title})
	if err != nil {
		return false, fmt.Errorf("submit title: %w", err)
	}
	return result.Deleted, nil
}

// MoveTask changes exactly the given task's status. Transitions outside the
// column state machine are rejected locally.
func (s *Service) MoveTask(ctx context.Context, id int, from, to domain.Status) error {
	if !domain.CanMove(from, to) {
		return fmt.Errorf("move task %d: %s -> %s: %w", id, from, to, domain.ErrUnknownStatus)
	}
	if _, err := s.remote.UpdateTask(ctx, id, TaskPatch{Status: &to}); err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	return nil
}

// CommitDrop persists a finished drag gesture. A cross-column drop updates
// the dragged task's status first, then the destination order; a
// same-column drop is a pure reorder. On any failure the caller must
// resync from the server's authoritative state rather than trusting the
// optimistic local mutation.
func (s *Service) CommitDrop(ctx context.Context, plan board.DropPlan) error {
	if !plan.SameColumn() {
		status := plan.To
		if _, err := s.remote.UpdateTask(ctx, plan.TaskID, TaskPatch{Status: &status}); err != nil {
			return fmt.Errorf("commit drop status: %w", err)
		}
	}
	if err := s.remote.ReorderColumn(ctx, plan.To, plan.OrderedIDs); err != nil {
		return fmt.Errorf("commit drop order: %w", err)
	}
	return nil
}

// ArchiveFinished asks the backend to move all finished tasks to the
// archive.
func (s *Service) ArchiveFinished(ctx context.Context) error {
	if err := s.remote.ArchiveFinished(ctx); err != nil {
		return fmt.Errorf("archive finished: %w", err)
	}
	return nil
}

// Habits fetches all habits.
func (s *Service) Habits(ctx context.Context) ([]domain.Habit, error) {
	habits, err := s.remote.ListHabits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// CreateHabit validates and submits a new habit with its weekly schedule.
func (s *Service) CreateHabit(ctx context.Context, name string, days []domain.Weekday) (domain.Habit, error) {
	name, days, err := domain.NewHabitInput(name, days)
	if err != nil {
		return domain.Habit{}, err
	}
	habit, err := s.remote.CreateHabit(ctx, name, days)
	if err != nil {
		return domain.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	return habit, nil
}

// DeleteHabit removes a habit and its completion history.
func (s *Service) DeleteHabit(ctx context.Context, id int) error {
	if err := s.remote.DeleteHabit(ctx, id); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

// ToggleHabit flips a habit's completion for the date. The caller applies
// the optimistic flip before this returns and must replay the inverse flip
// when the error is non-nil, including ErrToggleRejected, returned when
// the server answered but refused the toggle.
func (s *Service) ToggleHabit(ctx context.Context, id int, date domain.Date) error {
	success, err := s.remote.ToggleHabit(ctx, id, date)
	if err != nil {
		return fmt.Errorf("toggle habit: %w", err)
	}
	if !success {
		return fmt.Errorf("toggle habit %d on %s: %w", id, date, ErrToggleRejected)
	}
	return nil
}

// History fetches the per-date aggregates for a year. Year zero means the
// server's unfiltered history.
func (s *Service) History(ctx context.Context, year int) (map[domain.Date]domain.DayRecord, error) {
	records, err := s.remote.History(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return records, nil
}
