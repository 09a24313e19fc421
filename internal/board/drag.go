package board

import "github.com/hylla/syssla/internal/domain"

// CardRect is the rendered vertical extent of one card inside a column,
// in terminal rows.
type CardRect struct {
	TaskID int
	Top    int
	Height int
}

// midpoint returns the card's vertical center row.
func (c CardRect) midpoint() int {
	return c.Top + c.Height/2
}

// InsertionIndex computes where a dragged card lands in a column: the first
// sibling whose vertical midpoint lies at or below the pointer Y wins.
// All non-dragged cards are scanned and the one with the smallest
// non-negative midpoint-minus-pointer offset is chosen; the insertion point
// sits immediately before it. When no sibling qualifies the card lands at
// column end. The returned index counts non-dragged cards preceding the
// insertion point.
func InsertionIndex(cards []CardRect, pointerY, draggedID int) int {
	bestOffset := -1
	bestIndex := -1
	position := 0
	for _, card := range cards {
		if card.TaskID == draggedID {
			continue
		}
		offset := card.midpoint() - pointerY
		if offset >= 0 && (bestOffset < 0 || offset < bestOffset) {
			bestOffset = offset
			bestIndex = position
		}
		position++
	}
	if bestIndex < 0 {
		return position
	}
	return bestIndex
}

// DropPlan is the persistence plan produced by a completed drop or a
// keyboard shift. From != To means the dragged task changes status; the
// ordered id list always describes the destination column.
type DropPlan struct {
	TaskID     int
	From       domain.Status
	To         domain.Status
	OrderedIDs []int
}

// SameColumn reports whether the plan is a pure reorder.
func (p DropPlan) SameColumn() bool {
	return p.From == p.To
}

// Drag is the explicit state of one in-flight drag gesture. The zero value
// is idle; Start activates it and Drop/Cancel always return it to idle so
// no placeholder outlives the gesture.
type Drag struct {
	active      bool
	taskID      int
	from        domain.Status
	over        domain.Status
	insertIndex int
	height      int
}

// Start captures the dragged task and reserves a same-height placeholder
// in its own column at its current position.
func (d *Drag) Start(task domain.Task, height int, index int) {
	if height < 1 {
		height = 1
	}
	d.active = true
	d.taskID = task.ID
	d.from = task.Status
	d.over = task.Status
	d.insertIndex = index
	d.height = height
}

// Active reports whether a drag gesture is in flight.
func (d *Drag) Active() bool { return d.active }

// TaskID returns the dragged task id.
func (d *Drag) TaskID() int { return d.taskID }

// From returns the column the drag started in.
func (d *Drag) From() domain.Status { return d.from }

// Over returns the column currently hovered.
func (d *Drag) Over() domain.Status { return d.over }

// Index returns the current placeholder index within the hovered column,
// counting non-dragged cards.
func (d *Drag) Index() int { return d.insertIndex }

// PlaceholderHeight returns the reserved placeholder height in rows.
func (d *Drag) PlaceholderHeight() int { return d.height }

// Hover recomputes the placeholder position for the hovered column from
// the pointer's vertical position and the column's rendered card extents.
func (d *Drag) Hover(status domain.Status, pointerY int, cards []CardRect) {
	if !d.active || !status.Valid() {
		return
	}
	d.over = status
	d.insertIndex = InsertionIndex(cards, pointerY, d.taskID)
}

// Drop finishes the gesture against the current board state and returns
// the persistence plan. The drag state is cleared unconditionally.
func (d *Drag) Drop(b *Board) (DropPlan, bool) {
	if !d.active {
		return DropPlan{}, false
	}
	plan := DropPlan{TaskID: d.taskID, From: d.from, To: d.over}
	index := d.insertIndex
	d.Cancel()

	ids := make([]int, 0, b.Len(plan.To)+1)
	for _, id := range b.OrderedIDs(plan.To) {
		if id != plan.TaskID {
			ids = append(ids, id)
		}
	}
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	ids = append(ids[:index], append([]int{plan.TaskID}, ids[index:]...)...)
	plan.OrderedIDs = ids
	return plan, true
}

// Cancel clears the gesture. Safe to call in any state; the placeholder is
// always removed and the dragging visuals always reset.
func (d *Drag) Cancel() {
	*d = Drag{}
}
