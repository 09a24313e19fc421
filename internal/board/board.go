// Package board holds the in-memory board model and the drag/reorder
// engine. The board is rebuilt wholesale from every fetch; nothing here
// talks to the network.
package board

import (
	"sort"

	"github.com/hylla/syssla/internal/domain"
)

// Board groups the last-fetched tasks by column, each column sorted by
// Order ascending with server fetch order as the tie-break.
type Board struct {
	columns map[domain.Status][]domain.Task
}

// New constructs an empty board.
func New() *Board {
	return &Board{columns: map[domain.Status][]domain.Task{}}
}

// Rebuild replaces the entire board state with the fetched tasks: a full
// replace, never a merge, so no stale task survives a refresh. Tasks with
// an unknown status are excluded from the board and returned to the caller
// for logging.
func (b *Board) Rebuild(tasks []domain.Task) []domain.Task {
	columns := map[domain.Status][]domain.Task{}
	var dropped []domain.Task
	for _, task := range tasks {
		if !task.Status.Valid() {
			dropped = append(dropped, task)
			continue
		}
		columns[task.Status] = append(columns[task.Status], task)
	}
	for status := range columns {
		col := columns[status]
		sort.SliceStable(col, func(i, j int) bool {
			return col[i].Order < col[j].Order
		})
	}
	b.columns = columns
	return dropped
}

// Tasks returns the column's tasks in display order.
func (b *Board) Tasks(status domain.Status) []domain.Task {
	return append([]domain.Task(nil), b.columns[status]...)
}

// Len returns the number of tasks in the column.
func (b *Board) Len(status domain.Status) int {
	return len(b.columns[status])
}

// Task looks a task up by id across all columns.
func (b *Board) Task(id int) (domain.Task, bool) {
	for _, col := range b.columns {
		for _, task := range col {
			if task.ID == id {
				return task, true
			}
		}
	}
	return domain.Task{}, false
}

// OrderedIDs returns the column's task ids in display order.
func (b *Board) OrderedIDs(status domain.Status) []int {
	col := b.columns[status]
	ids := make([]int, 0, len(col))
	for _, task := range col {
		ids = append(ids, task.ID)
	}
	return ids
}

// Remove drops a task from the board without a refresh. Used when the
// server reports a deletion (title emptied) so the card can disappear
// locally.
func (b *Board) Remove(id int) {
	for status, col := range b.columns {
		for idx, task := range col {
			if task.ID == id {
				b.columns[status] = append(col[:idx], col[idx+1:]...)
				return
			}
		}
	}
}

// PlanShift produces a same-column reorder plan moving the task by delta
// positions. Reordering never changes any task's status.
func (b *Board) PlanShift(id, delta int) (DropPlan, bool) {
	task, ok := b.Task(id)
	if !ok {
		return DropPlan{}, false
	}
	ids := b.OrderedIDs(task.Status)
	from := -1
	for idx, existing := range ids {
		if existing == id {
			from = idx
			break
		}
	}
	if from < 0 {
		return DropPlan{}, false
	}
	to := from + delta
	if to < 0 || to >= len(ids) || to == from {
		return DropPlan{}, false
	}
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]int{id}, ids[to:]...)...)
	return DropPlan{TaskID: id, From: task.Status, To: task.Status, OrderedIDs: ids}, true
}
