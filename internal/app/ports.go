package app

import (
	"context"

	"github.com/hylla/syssla/internal/domain"
)

// TaskPatch is a partial task update. Nil fields are omitted from the
// request body.
type TaskPatch struct {
	Title  *string
	Status *domain.Status
}

// UpdateTaskResult reports the outcome of a task update. Deleted is true
// when the server removed the task because the submitted title was empty
// after trimming.
type UpdateTaskResult struct {
	Task    *domain.Task
	Deleted bool
}

// Remote is the HTTP/JSON backend surface the client depends on. Calls do
// not retry; failures surface as *NetworkError or *ServerError.
type Remote interface {
	ListTasks(context.Context) ([]domain.Task, error)
	CreateTask(context.Context, string, domain.Status) (domain.Task, error)
	UpdateTask(context.Context, int, TaskPatch) (UpdateTaskResult, error)
	ReorderColumn(context.Context, domain.Status, []int) error
	ArchiveFinished(context.Context) error

	ListHabits(context.Context) ([]domain.Habit, error)
	CreateHabit(context.Context, string, []domain.Weekday) (domain.Habit, error)
	ToggleHabit(context.Context, int, domain.Date) (bool, error)
	DeleteHabit(context.Context, int) error

	History(context.Context, int) (map[domain.Date]domain.DayRecord, error)
}
