package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/syssla/internal/app"
	"github.com/hylla/syssla/internal/board"
	"github.com/hylla/syssla/internal/config"
	"github.com/hylla/syssla/internal/domain"
	"github.com/hylla/syssla/internal/heatmap"
)

// Service represents the application surface the TUI drives.
type Service interface {
	Today() domain.Date
	RefreshBoard(context.Context) (*board.Board, error)
	CreateTask(context.Context, string, domain.Status) (domain.Task, error)
	SubmitTitle(context.Context, int, string) (bool, error)
	MoveTask(context.Context, int, domain.Status, domain.Status) error
	CommitDrop(context.Context, board.DropPlan) error
	ArchiveFinished(context.Context) error
	Habits(context.Context) ([]domain.Habit, error)
	CreateHabit(context.Context, string, []domain.Weekday) (domain.Habit, error)
	DeleteHabit(context.Context, int) error
	ToggleHabit(context.Context, int, domain.Date) error
	History(context.Context, int) (map[domain.Date]domain.DayRecord, error)
}

// activeView represents a selectable top-level view.
type activeView int

// viewBoard and related constants define the top-level views.
const (
	viewBoard activeView = iota
	viewHabits
	viewHeatmap
)

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddCard
	modeEditCard
	modeMoveCard
	modeAddHabit
	modeConfirmHabitDelete
	modeDayDetail
)

// cardHeight is the rendered height of one card, border included. Mouse
// hit-testing depends on it staying in sync with renderColumn.
const cardHeight = 3

// boardHeaderRows is the rendered rows above the first card inside a
// column: the border top and the column header line.
const boardHeaderRows = 2

// pressedCard records a mouse press that may become a drag once the
// pointer moves.
type pressedCard struct {
	taskID int
	status domain.Status
	index  int
}

// boardLoadedMsg carries a full board refresh result.
type boardLoadedMsg struct {
	board *board.Board
	err   error
}

// habitsLoadedMsg carries a habit list refresh result.
type habitsLoadedMsg struct {
	habits []domain.Habit
	err    error
}

// historyLoadedMsg carries one year of history aggregates.
type historyLoadedMsg struct {
	year    int
	records map[domain.Date]domain.DayRecord
	err     error
}

// taskCreatedMsg reports the outcome of a provisional card commit.
type taskCreatedMsg struct {
	task domain.Task
	err  error
}

// titleSavedMsg reports the outcome of an inline title edit.
type titleSavedMsg struct {
	id      int
	deleted bool
	err     error
}

// habitToggledMsg reports the outcome of an optimistic habit toggle.
type habitToggledMsg struct {
	id   int
	date domain.Date
	err  error
}

// opDoneMsg reports a fire-and-refresh mutation outcome.
type opDoneMsg struct {
	status  string
	err     error
	refresh bool
}

// Model represents model data used by this package.
type Model struct {
	svc Service
	log *charmLog.Logger

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	view activeView
	mode inputMode

	board          *board.Board
	drag           board.Drag
	pressed        *pressedCard
	selectedColumn int
	selectedCard   int

	titleInput    textinput.Model
	editingTaskID int
	addColumn     domain.Status
	addPending    bool

	habits         []domain.Habit
	selectedHabit  int
	habitInput     textinput.Model
	habitDays      map[domain.Weekday]bool
	habitDayCursor int

	heatmapMode  heatmap.Mode
	year         int
	records      map[domain.Date]domain.DayRecord
	grid         heatmap.Grid
	selectedDate domain.Date
	md           markdownRenderer
}

// NewModel constructs a new model for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	titleInput := textinput.New()
	titleInput.Prompt = "> "
	titleInput.Placeholder = "card title"
	titleInput.CharLimit = 200
	habitInput := textinput.New()
	habitInput.Prompt = "> "
	habitInput.Placeholder = "habit name"
	habitInput.CharLimit = 120
	m := Model{
		svc:        svc,
		log:        charmLog.New(io.Discard),
		status:     "loading...",
		help:       h,
		keys:       newKeyMap(config.KeyConfig{}),
		titleInput: titleInput,
		habitInput: habitInput,
		habitDays:  map[domain.Weekday]bool{},
	}
	m.year = m.svc.Today().Year()
	m.selectedDate = m.svc.Today()
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadBoard, m.loadHabits)
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		if msg.err != nil {
			m.log.Error("board refresh failed", "err", msg.err)
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.board = msg.board
		m.drag.Cancel()
		m.pressed = nil
		m.clampSelections()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case habitsLoadedMsg:
		if msg.err != nil {
			m.status = "load habits failed: " + describeError(msg.err)
			return m, nil
		}
		m.habits = msg.habits
		m.clampSelections()
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.status = "load history failed: " + describeError(msg.err)
			return m, nil
		}
		if msg.year != m.year {
			// A stale year's response; the displayed year moved on.
			m.log.Debug("stale history response dropped", "year", msg.year, "displayed", m.year)
			return m, nil
		}
		m.records = msg.records
		m.rebuildGrid()
		return m, nil

	case taskCreatedMsg:
		m.addPending = false
		if msg.err != nil {
			m.status = "add card failed: " + describeError(msg.err)
			return m, m.loadBoard
		}
		m.status = fmt.Sprintf("added %q", msg.task.Title)
		return m, m.loadBoard

	case titleSavedMsg:
		if msg.err != nil {
			m.status = "save title failed: " + describeError(msg.err)
			return m, m.loadBoard
		}
		if msg.deleted {
			if m.board != nil {
				m.board.Remove(msg.id)
			}
			m.clampSelections()
			m.status = "card deleted"
			return m, nil
		}
		m.status = "title saved"
		return m, m.loadBoard

	case habitToggledMsg:
		if msg.err != nil {
			m.log.Warn("habit toggle reverted", "habit_id", msg.id, "date", msg.date, "err", msg.err)
			m.revertHabitToggle(msg.id, msg.date)
			m.status = "toggle failed: " + describeError(msg.err)
			return m, m.loadHabits
		}
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.log.Warn("mutation failed, resyncing from server", "err", msg.err)
			m.status = describeError(msg.err)
			return m, m.loadBoard
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.refresh {
			return m, m.loadBoard
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// commands

// loadBoard loads required data for the current operation.
func (m Model) loadBoard() tea.Msg {
	b, err := m.svc.RefreshBoard(context.Background())
	return boardLoadedMsg{board: b, err: err}
}

// loadHabits loads required data for the current operation.
func (m Model) loadHabits() tea.Msg {
	habits, err := m.svc.Habits(context.Background())
	return habitsLoadedMsg{habits: habits, err: err}
}

// loadHistory loads one year of history aggregates.
func (m Model) loadHistory(year int) tea.Cmd {
	return func() tea.Msg {
		records, err := m.svc.History(context.Background(), year)
		return historyLoadedMsg{year: year, records: records, err: err}
	}
}

func (m Model) createTask(title string, status domain.Status) tea.Cmd {
	return func() tea.Msg {
		task, err := m.svc.CreateTask(context.Background(), title, status)
		return taskCreatedMsg{task: task, err: err}
	}
}

func (m Model) saveTitle(id int, title string) tea.Cmd {
	return func() tea.Msg {
		deleted, err := m.svc.SubmitTitle(context.Background(), id, title)
		return titleSavedMsg{id: id, deleted: deleted, err: err}
	}
}

func (m Model) moveTask(id int, from, to domain.Status) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.MoveTask(context.Background(), id, from, to); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: "moved to " + to.Label(), refresh: true}
	}
}

func (m Model) commitDrop(plan board.DropPlan) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.CommitDrop(context.Background(), plan); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{refresh: true}
	}
}

func (m Model) archiveFinished() tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.ArchiveFinished(context.Background()); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: "finished cards archived", refresh: true}
	}
}

func (m Model) createHabit(name string, days []domain.Weekday) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.CreateHabit(context.Background(), name, days); err != nil {
			return opDoneMsg{err: err}
		}
		return m.loadHabits()
	}
}

func (m Model) deleteHabit(id int) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.DeleteHabit(context.Background(), id); err != nil {
			return opDoneMsg{err: err}
		}
		return m.loadHabits()
	}
}

func (m Model) toggleHabit(id int, date domain.Date) tea.Cmd {
	return func() tea.Msg {
		err := m.svc.ToggleHabit(context.Background(), id, date)
		return habitToggledMsg{id: id, date: date, err: err}
	}
}

// keyboard handling

// handleNormalModeKey handles keys while no input mode is active.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.status = "refreshing..."
		cmds := []tea.Cmd{m.loadBoard, m.loadHabits}
		if m.view == viewHeatmap {
			cmds = append(cmds, m.loadHistory(m.year))
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.boardView):
		m.view = viewBoard
		return m, nil
	case key.Matches(msg, m.keys.habitsView):
		m.view = viewHabits
		return m, nil
	case key.Matches(msg, m.keys.heatmapView):
		m.view = viewHeatmap
		if m.records == nil {
			return m, m.loadHistory(m.year)
		}
		m.rebuildGrid()
		return m, nil
	}

	switch m.view {
	case viewBoard:
		return m.handleBoardKey(msg)
	case viewHabits:
		return m.handleHabitsKey(msg)
	default:
		return m.handleHeatmapKey(msg)
	}
}

// handleBoardKey handles board navigation and card actions.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.columnLeft):
		m.selectedColumn = clamp(m.selectedColumn-1, 0, len(domain.Columns())-1)
		m.clampSelections()
	case key.Matches(msg, m.keys.columnRight):
		m.selectedColumn = clamp(m.selectedColumn+1, 0, len(domain.Columns())-1)
		m.clampSelections()
	case key.Matches(msg, m.keys.cardUp):
		m.selectedCard = clamp(m.selectedCard-1, 0, len(m.currentColumnTasks())-1)
	case key.Matches(msg, m.keys.cardDown):
		m.selectedCard = clamp(m.selectedCard+1, 0, len(m.currentColumnTasks())-1)
	case key.Matches(msg, m.keys.shiftUp):
		return m.shiftSelected(-1)
	case key.Matches(msg, m.keys.shiftDown):
		return m.shiftSelected(1)
	case key.Matches(msg, m.keys.addCard):
		if m.addPending {
			m.status = "a new card is already pending"
			return m, nil
		}
		m.mode = modeAddCard
		m.addColumn = m.currentColumn()
		m.titleInput.SetValue("")
		return m, m.titleInput.Focus()
	case key.Matches(msg, m.keys.editCard):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.mode = modeEditCard
		m.editingTaskID = task.ID
		m.titleInput.SetValue(task.Title)
		m.titleInput.CursorEnd()
		return m, m.titleInput.Focus()
	case msg.String() == "m":
		if _, ok := m.selectedTask(); ok {
			m.mode = modeMoveCard
		}
	case key.Matches(msg, m.keys.archive):
		if m.board == nil || m.board.Len(domain.StatusFinished) == 0 {
			m.status = "nothing to archive"
			return m, nil
		}
		return m, m.archiveFinished()
	case key.Matches(msg, m.keys.copyTitle):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		if err := clipboard.WriteAll(task.Title); err != nil {
			m.status = "copy failed: " + err.Error()
		} else {
			m.status = "title copied"
		}
	}
	return m, nil
}

// shiftSelected moves the selected card one slot within its column.
func (m Model) shiftSelected(delta int) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok || m.board == nil {
		return m, nil
	}
	plan, ok := m.board.PlanShift(task.ID, delta)
	if !ok {
		return m, nil
	}
	m.selectedCard = clamp(m.selectedCard+delta, 0, len(m.currentColumnTasks())-1)
	return m, m.commitDrop(plan)
}

// handleHabitsKey handles habit list navigation and toggles.
func (m Model) handleHabitsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	today := m.todayHabits()
	switch {
	case key.Matches(msg, m.keys.cardUp):
		m.selectedHabit = clamp(m.selectedHabit-1, 0, len(today)-1)
	case key.Matches(msg, m.keys.cardDown):
		m.selectedHabit = clamp(m.selectedHabit+1, 0, len(today)-1)
	case key.Matches(msg, m.keys.toggleHabit):
		if len(today) == 0 {
			return m, nil
		}
		habit := today[m.selectedHabit]
		date := m.svc.Today()
		m.applyHabitToggle(habit.ID, date)
		return m, m.toggleHabit(habit.ID, date)
	case key.Matches(msg, m.keys.addHabit):
		m.mode = modeAddHabit
		m.habitInput.SetValue("")
		m.habitDays = map[domain.Weekday]bool{}
		m.habitDayCursor = 0
		return m, m.habitInput.Focus()
	case key.Matches(msg, m.keys.deleteHabit):
		if len(today) == 0 {
			return m, nil
		}
		m.mode = modeConfirmHabitDelete
	}
	return m, nil
}

// handleHeatmapKey handles heatmap navigation.
func (m Model) handleHeatmapKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yearBack):
		m.year--
		m.selectedDate = domain.Date(fmt.Sprintf("%04d-01-01", m.year))
		return m, m.loadHistory(m.year)
	case key.Matches(msg, m.keys.yearForward):
		if !heatmap.CanAdvance(m.year, m.todayTime()) {
			// Navigation into years with no possible data stays disabled.
			return m, nil
		}
		m.year++
		m.selectedDate = domain.Date(fmt.Sprintf("%04d-01-01", m.year))
		return m, m.loadHistory(m.year)
	case key.Matches(msg, m.keys.cycleMode):
		m.heatmapMode = m.heatmapMode.Next()
		m.rebuildGrid()
	case key.Matches(msg, m.keys.openDetail):
		m.mode = modeDayDetail
	case key.Matches(msg, m.keys.columnLeft):
		m.moveSelectedDate(-1)
	case key.Matches(msg, m.keys.columnRight):
		m.moveSelectedDate(1)
	case key.Matches(msg, m.keys.cardUp):
		m.moveSelectedDate(-7)
	case key.Matches(msg, m.keys.cardDown):
		m.moveSelectedDate(7)
	}
	return m, nil
}

// moveSelectedDate shifts the heatmap cursor by days, clamped to the
// displayed range.
func (m *Model) moveSelectedDate(days int) {
	t, err := m.selectedDate.Time()
	if err != nil {
		m.selectedDate = m.svc.Today()
		return
	}
	next := domain.DateOf(t.AddDate(0, 0, days))
	if next.Year() != m.year {
		return
	}
	today := m.svc.Today()
	if m.year == today.Year() && next > today {
		return
	}
	m.selectedDate = next
}

// handleInputModeKey routes keys while an input mode is active.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddCard, modeEditCard:
		return m.handleTitleInputKey(msg)
	case modeMoveCard:
		return m.handleMoveCardKey(msg)
	case modeAddHabit:
		return m.handleHabitFormKey(msg)
	case modeConfirmHabitDelete:
		return m.handleHabitDeleteKey(msg)
	case modeDayDetail:
		switch msg.String() {
		case "esc", "enter", "q":
			m.mode = modeNone
		case "y":
			record, known := m.records[m.selectedDate]
			if err := clipboard.WriteAll(heatmap.DetailMarkdown(m.selectedDate, record, known)); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "day summary copied"
			}
		}
		return m, nil
	default:
		m.mode = modeNone
		return m, nil
	}
}

// handleTitleInputKey drives the inline add/edit title input.
func (m Model) handleTitleInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Cancel discards the provisional card or edit without a request.
		m.mode = modeNone
		m.editingTaskID = 0
		m.titleInput.Blur()
		return m, nil
	case "enter":
		title := domain.NormalizeTitle(m.titleInput.Value())
		adding := m.mode == modeAddCard
		editingID := m.editingTaskID
		m.mode = modeNone
		m.editingTaskID = 0
		m.titleInput.Blur()
		if adding {
			if title == "" {
				return m, nil
			}
			m.addPending = true
			m.status = "adding card..."
			return m, m.createTask(title, m.addColumn)
		}
		// An empty edited title is a delete request, handled server-side.
		return m, m.saveTitle(editingID, m.titleInput.Value())
	}
	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

// handleMoveCardKey applies one of the allowed transitions for the
// selected card.
func (m Model) handleMoveCardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.mode = modeNone
		return m, nil
	}
	task, ok := m.selectedTask()
	if !ok {
		m.mode = modeNone
		return m, nil
	}
	targets := domain.AllowedMoves(task.Status)
	for idx, target := range targets {
		if msg.String() == fmt.Sprintf("%d", idx+1) {
			m.mode = modeNone
			return m, m.moveTask(task.ID, task.Status, target)
		}
	}
	return m, nil
}

// handleHabitFormKey drives the new-habit form: a name input plus a
// weekday picker toggled with tab/space.
func (m Model) handleHabitFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.habitInput.Blur()
		return m, nil
	case "tab", "shift+tab":
		if m.habitInput.Focused() {
			m.habitInput.Blur()
		} else {
			return m, m.habitInput.Focus()
		}
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.habitInput.Value())
		days := make([]domain.Weekday, 0, len(m.habitDays))
		for day, on := range m.habitDays {
			if on {
				days = append(days, day)
			}
		}
		if name == "" || len(days) == 0 {
			m.status = "habit needs a name and at least one day"
			return m, nil
		}
		m.mode = modeNone
		m.habitInput.Blur()
		return m, m.createHabit(name, days)
	}
	if m.habitInput.Focused() {
		var cmd tea.Cmd
		m.habitInput, cmd = m.habitInput.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "h", "left":
		m.habitDayCursor = clamp(m.habitDayCursor-1, 0, 6)
	case "l", "right":
		m.habitDayCursor = clamp(m.habitDayCursor+1, 0, 6)
	case " ", "space", "x":
		day := domain.Weekday(rune('0' + m.habitDayCursor))
		m.habitDays[day] = !m.habitDays[day]
	}
	return m, nil
}

// handleHabitDeleteKey resolves the delete confirmation.
func (m Model) handleHabitDeleteKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeNone
		today := m.todayHabits()
		if len(today) == 0 {
			return m, nil
		}
		return m, m.deleteHabit(today[m.selectedHabit].ID)
	case "n", "N", "esc":
		m.mode = modeNone
	}
	return m, nil
}

// mouse handling

// handleMouseWheel scrolls the card selection in the hovered column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.view != viewBoard || m.mode != modeNone {
		return m, nil
	}
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedCard > 0 {
			m.selectedCard--
		}
	case tea.MouseWheelDown:
		if m.selectedCard < len(tasks)-1 {
			m.selectedCard++
		}
	}
	return m, nil
}

// handleMouseClick selects the card under the pointer and arms a
// potential drag.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.view != viewBoard || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	if m.board == nil {
		return m, nil
	}
	colIdx, ok := m.columnAt(msg.X)
	if !ok {
		return m, nil
	}
	m.selectedColumn = colIdx
	status := domain.Columns()[colIdx]
	idx, hit := m.cardIndexAt(status, msg.Y)
	if !hit {
		m.clampSelections()
		return m, nil
	}
	m.selectedCard = idx
	tasks := m.board.Tasks(status)
	m.pressed = &pressedCard{taskID: tasks[idx].ID, status: status, index: idx}
	return m, nil
}

// handleMouseMotion promotes an armed press into a drag and tracks the
// hovered insertion point.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.view != viewBoard || m.board == nil {
		return m, nil
	}
	if !m.drag.Active() {
		if m.pressed == nil {
			return m, nil
		}
		task, ok := m.board.Task(m.pressed.taskID)
		if !ok {
			m.pressed = nil
			return m, nil
		}
		m.drag.Start(task, cardHeight, m.pressed.index)
	}
	colIdx, ok := m.columnAt(msg.X)
	if !ok {
		return m, nil
	}
	status := domain.Columns()[colIdx]
	m.drag.Hover(status, msg.Y, m.cardRects(status))
	return m, nil
}

// handleMouseRelease commits the drag in flight, skipping commits that
// would not change the column ordering.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	m.pressed = nil
	if !m.drag.Active() {
		return m, nil
	}
	plan, ok := m.drag.Drop(m.board)
	if !ok {
		return m, nil
	}
	if plan.SameColumn() && equalIDs(plan.OrderedIDs, m.board.OrderedIDs(plan.To)) {
		return m, nil
	}
	m.status = "saving order..."
	return m, m.commitDrop(plan)
}

// geometry

// boardTop is the first row of the column area.
func (m Model) boardTop() int {
	return 2
}

// columnWidth is the inner width of one rendered column.
func (m Model) columnWidth() int {
	count := len(domain.Columns())
	w := m.width/count - 2
	if w < 16 {
		w = 16
	}
	return w
}

// columnAt maps a pointer X onto a column index.
func (m Model) columnAt(x int) (int, bool) {
	full := m.columnWidth() + 2 // border
	if full <= 0 {
		return 0, false
	}
	idx := x / full
	if idx < 0 || idx >= len(domain.Columns()) {
		return 0, false
	}
	return idx, true
}

// cardRects returns the static card layout of a column for hit-testing.
func (m Model) cardRects(status domain.Status) []board.CardRect {
	if m.board == nil {
		return nil
	}
	tasks := m.board.Tasks(status)
	rects := make([]board.CardRect, 0, len(tasks))
	top := m.boardTop() + boardHeaderRows
	for idx, task := range tasks {
		rects = append(rects, board.CardRect{
			TaskID: task.ID,
			Top:    top + idx*cardHeight,
			Height: cardHeight,
		})
	}
	return rects
}

// cardIndexAt maps a pointer Y onto a card index within a column.
func (m Model) cardIndexAt(status domain.Status, y int) (int, bool) {
	for idx, rect := range m.cardRects(status) {
		if y >= rect.Top && y < rect.Top+rect.Height {
			return idx, true
		}
	}
	return 0, false
}

// state helpers

// currentColumn returns the selected column's status.
func (m Model) currentColumn() domain.Status {
	return domain.Columns()[clamp(m.selectedColumn, 0, len(domain.Columns())-1)]
}

// currentColumnTasks returns the selected column's tasks.
func (m Model) currentColumnTasks() []domain.Task {
	if m.board == nil {
		return nil
	}
	return m.board.Tasks(m.currentColumn())
}

// selectedTask returns the selected card, if any.
func (m Model) selectedTask() (domain.Task, bool) {
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		return domain.Task{}, false
	}
	idx := clamp(m.selectedCard, 0, len(tasks)-1)
	return tasks[idx], true
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	m.selectedColumn = clamp(m.selectedColumn, 0, len(domain.Columns())-1)
	m.selectedCard = clamp(m.selectedCard, 0, len(m.currentColumnTasks())-1)
	m.selectedHabit = clamp(m.selectedHabit, 0, len(m.todayHabits())-1)
}

// todayHabits returns the habits scheduled for today's weekday,
// regardless of completion history.
func (m Model) todayHabits() []domain.Habit {
	today := m.svc.Today()
	out := make([]domain.Habit, 0, len(m.habits))
	for _, habit := range m.habits {
		if habit.AvailableOn(today) {
			out = append(out, habit)
		}
	}
	return out
}

// todayTime returns today as a time value for grid building and year
// clamping.
func (m Model) todayTime() time.Time {
	t, err := m.svc.Today().Time()
	if err != nil {
		return time.Now()
	}
	return t
}

// applyHabitToggle flips a habit's completion locally ahead of the
// server round-trip.
func (m *Model) applyHabitToggle(id int, date domain.Date) {
	for idx := range m.habits {
		if m.habits[idx].ID == id {
			m.habits[idx].ToggleDate(date)
			return
		}
	}
}

// revertHabitToggle replays the inverse of a failed optimistic toggle.
func (m *Model) revertHabitToggle(id int, date domain.Date) {
	m.applyHabitToggle(id, date)
}

// rebuildGrid recomputes the heatmap grid from the loaded records.
func (m *Model) rebuildGrid() {
	m.grid = heatmap.Build(m.year, m.todayTime(), m.heatmapMode, m.records)
}

// rendering

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	var content string
	switch m.view {
	case viewBoard:
		content = m.renderBoard()
	case viewHabits:
		content = m.renderHabits()
	default:
		content = m.renderHeatmap()
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	header := m.renderHeader()
	statusLine := lipgloss.NewStyle().Foreground(dim).Render(truncate(m.status, max(0, m.width)))
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	chromeHeight := lipgloss.Height(header) + lipgloss.Height(statusLine) + lipgloss.Height(helpLine)
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-chromeHeight))
	}
	full := strings.Join([]string{header, content, statusLine, helpLine}, "\n")

	if overlay := m.renderOverlay(); overlay != "" {
		full = overlayOnContent(full, overlay, m.width, m.height)
	}

	v := tea.NewView(full)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderHeader renders the app title, view tabs, and today's date.
func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	activeTab := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	idleTab := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tabs := []string{"1 board", "2 habits", "3 heatmap"}
	for idx := range tabs {
		if activeView(idx) == m.view {
			tabs[idx] = activeTab.Render(tabs[idx])
		} else {
			tabs[idx] = idleTab.Render(tabs[idx])
		}
	}
	line := titleStyle.Render("syssla") + "  " + strings.Join(tabs, "  ") +
		"  " + idleTab.Render(string(m.svc.Today()))
	return truncateANSIWidth(line, m.width) + "\n"
}

// renderBoard renders the four columns side by side.
func (m Model) renderBoard() string {
	columns := make([]string, 0, len(domain.Columns()))
	for idx, status := range domain.Columns() {
		columns = append(columns, m.renderColumn(status, idx == m.selectedColumn))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// renderColumn renders one column with its cards, placeholder included
// while a drag hovers over it.
func (m Model) renderColumn(status domain.Status, selected bool) string {
	width := m.columnWidth()
	borderColor := lipgloss.Color("239")
	if selected {
		borderColor = lipgloss.Color("62")
	}
	headerStyle := lipgloss.NewStyle().Bold(true)
	count := 0
	var tasks []domain.Task
	if m.board != nil {
		tasks = m.board.Tasks(status)
		count = len(tasks)
	}
	header := headerStyle.Render(truncate(fmt.Sprintf("%s (%d)", status.Label(), count), width))

	dragging := m.drag.Active()
	var rows []string
	insertAt := -1
	if dragging && m.drag.Over() == status {
		insertAt = m.drag.Index()
	}
	visibleIdx := 0
	for idx, task := range tasks {
		if dragging && task.ID == m.drag.TaskID() {
			continue
		}
		if visibleIdx == insertAt {
			rows = append(rows, m.renderPlaceholder(width))
		}
		cardSelected := selected && m.mode == modeNone && !dragging && idx == clamp(m.selectedCard, 0, max(0, len(tasks)-1))
		rows = append(rows, m.renderCard(task, width, cardSelected))
		visibleIdx++
	}
	if insertAt >= visibleIdx && insertAt >= 0 {
		rows = append(rows, m.renderPlaceholder(width))
	}
	if len(rows) == 0 {
		rows = append(rows, lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render("  (empty)"))
	}

	body := header + "\n" + strings.Join(rows, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(width).
		Render(body)
}

// renderCard renders one card at the fixed card height.
func (m Model) renderCard(task domain.Task, width int, selected bool) string {
	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color("205")
	}
	title := truncate(task.Title, max(1, width-4))
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Width(width - 2).
		Render(title)
}

// renderPlaceholder renders the drop slot shown under a drag.
func (m Model) renderPlaceholder(width int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("62")).
		Width(width - 2).
		Render(lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("· · ·"))
}

// renderHabits renders today's habit list.
func (m Model) renderHabits() string {
	today := m.todayHabits()
	date := m.svc.Today()
	titleStyle := lipgloss.NewStyle().Bold(true)
	lines := []string{titleStyle.Render(fmt.Sprintf("Habits for %s", date)), ""}
	if len(today) == 0 {
		lines = append(lines, "No habits scheduled today.", "", "Press n to create one.")
		return strings.Join(lines, "\n")
	}
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	for idx, habit := range today {
		marker := "[ ]"
		name := habit.Name
		if habit.CompletedOn(date) {
			marker = doneStyle.Render("[x]")
		}
		cursor := "  "
		if idx == clamp(m.selectedHabit, 0, len(today)-1) {
			cursor = selectedStyle.Render("> ")
			name = selectedStyle.Render(name)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s", cursor, marker, name, scheduleSummary(habit.Days)))
	}
	return strings.Join(lines, "\n")
}

// weekdayShort maps weekday codes onto short labels for schedules and
// the habit form.
var weekdayShort = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// scheduleSummary renders a habit's weekday schedule.
func scheduleSummary(days []domain.Weekday) string {
	if len(days) == 7 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("(daily)")
	}
	names := make([]string, 0, len(days))
	for _, day := range days {
		idx := int(day[0] - '0')
		if idx >= 0 && idx < len(weekdayShort) {
			names = append(names, weekdayShort[idx])
		}
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("(" + strings.Join(names, " ") + ")")
}

// renderHeatmap renders the yearly grid with its header.
func (m Model) renderHeatmap() string {
	headerStyle := lipgloss.NewStyle().Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	nav := "[ prev"
	if heatmap.CanAdvance(m.year, m.todayTime()) {
		nav += "  ] next"
	} else {
		nav += "  (next disabled)"
	}
	header := headerStyle.Render(fmt.Sprintf("%d", m.year)) +
		"  " + mutedStyle.Render("metric: "+m.heatmapMode.Label()+"  •  "+nav)

	if len(m.grid.Months) == 0 {
		return header + "\n\nloading history..."
	}

	months := make([]string, 0, len(m.grid.Months))
	for _, month := range m.grid.Months {
		months = append(months, m.renderMonth(month))
	}
	var rows []string
	perRow := max(1, m.width/24)
	for start := 0; start < len(months); start += perRow {
		end := min(start+perRow, len(months))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, months[start:end]...))
	}
	return header + "\n\n" + strings.Join(rows, "\n")
}

// renderMonth renders one mini month calendar, Sunday first.
func (m Model) renderMonth(month heatmap.Month) string {
	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	lines := []string{labelStyle.Render(month.Month.String()[:3])}
	week := make([]string, 0, 7)
	for i := 0; i < month.LeadingBlanks; i++ {
		week = append(week, "  ")
	}
	for _, cell := range month.Cells {
		week = append(week, m.renderCell(cell))
		if len(week) == 7 {
			lines = append(lines, strings.Join(week, ""))
			week = week[:0]
		}
	}
	if len(week) > 0 {
		lines = append(lines, strings.Join(week, ""))
	}
	return lipgloss.NewStyle().MarginRight(2).Render(strings.Join(lines, "\n"))
}

// shadeRamp holds the green ramp used for known shades, darkest last.
var shadeRamp = []string{"237", "22", "28", "34", "40", "46"}

// renderCell renders a single date square.
func (m Model) renderCell(cell heatmap.Cell) string {
	glyph := "■ "
	var style lipgloss.Style
	if cell.Shade == heatmap.ShadeUnknown {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	} else {
		buckets := m.heatmapMode.Buckets()
		idx := 0
		if buckets > 1 {
			idx = cell.Shade * (len(shadeRamp) - 1) / (buckets - 1)
		}
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(shadeRamp[clamp(idx, 0, len(shadeRamp)-1)]))
	}
	if cell.Date == m.selectedDate {
		style = style.Reverse(true)
	}
	return style.Render(glyph)
}

// renderOverlay renders the active modal, if any.
func (m Model) renderOverlay() string {
	switch m.mode {
	case modeAddCard:
		return m.renderInputOverlay("New card in "+m.addColumn.Label(), m.titleInput.View(), "enter save • esc cancel")
	case modeEditCard:
		return m.renderInputOverlay("Edit title", m.titleInput.View(), "enter save • empty title deletes • esc cancel")
	case modeMoveCard:
		task, ok := m.selectedTask()
		if !ok {
			return ""
		}
		targets := domain.AllowedMoves(task.Status)
		parts := make([]string, 0, len(targets))
		for idx, target := range targets {
			parts = append(parts, fmt.Sprintf("[%d] %s", idx+1, target.Label()))
		}
		return m.renderInputOverlay("Move "+truncate(task.Title, 32), strings.Join(parts, "  "), "digit moves • esc cancel")
	case modeAddHabit:
		return m.renderInputOverlay("New habit", m.renderHabitForm(), "tab switch focus • enter save • esc cancel")
	case modeConfirmHabitDelete:
		today := m.todayHabits()
		if len(today) == 0 {
			return ""
		}
		habit := today[clamp(m.selectedHabit, 0, len(today)-1)]
		return m.renderInputOverlay("Delete habit", fmt.Sprintf("Delete %q and its history?", habit.Name), "y delete • n cancel")
	case modeDayDetail:
		record, known := m.records[m.selectedDate]
		doc := heatmap.DetailMarkdown(m.selectedDate, record, known)
		rendered := m.md.render(doc, max(24, m.width/2))
		return m.renderInputOverlay(string(m.selectedDate), rendered, "esc close")
	default:
		return ""
	}
}

// renderInputOverlay renders a bordered modal box.
func (m Model) renderInputOverlay(title, body, hint string) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	content := titleStyle.Render(title) + "\n\n" + body + "\n\n" + hintStyle.Render(hint)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Render(content)
}

// renderHabitForm renders the name input and weekday picker.
func (m Model) renderHabitForm() string {
	cells := make([]string, 0, 7)
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	onStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	for idx, name := range weekdayShort {
		day := domain.Weekday(rune('0' + idx))
		label := name
		if m.habitDays[day] {
			label = onStyle.Render(label)
		}
		if !m.habitInput.Focused() && idx == m.habitDayCursor {
			label = cursorStyle.Render(label)
		}
		cells = append(cells, label)
	}
	return m.habitInput.View() + "\n\n" + strings.Join(cells, " ")
}

// helpers

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

// truncateANSIWidth trims a styled line to the terminal width.
func truncateANSIWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// describeError renders a failure for the status line, folding the error
// taxonomy into short user-facing phrasing.
func describeError(err error) string {
	var netErr *app.NetworkError
	if errors.As(err, &netErr) {
		return fmt.Sprintf("server unreachable (%s), resyncing", netErr.Op)
	}
	var serverErr *app.ServerError
	if errors.As(err, &serverErr) {
		return fmt.Sprintf("server rejected %s (HTTP %d), resyncing", serverErr.Op, serverErr.StatusCode)
	}
	if errors.Is(err, app.ErrToggleRejected) {
		return "toggle rejected by server"
	}
	return err.Error()
}
