package tui

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"

	"github.com/hylla/syssla/internal/config"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	refresh     key.Binding
	toggleHelp  key.Binding
	columnLeft  key.Binding
	columnRight key.Binding
	cardUp      key.Binding
	cardDown    key.Binding
	shiftUp     key.Binding
	shiftDown   key.Binding
	addCard     key.Binding
	editCard    key.Binding
	archive     key.Binding
	copyTitle   key.Binding
	boardView   key.Binding
	habitsView  key.Binding
	heatmapView key.Binding
	toggleHabit key.Binding
	addHabit    key.Binding
	deleteHabit key.Binding
	yearBack    key.Binding
	yearForward key.Binding
	cycleMode   key.Binding
	openDetail  key.Binding
}

// newKeyMap constructs key map from the configured overrides.
func newKeyMap(keys config.KeyConfig) keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		refresh:     binding(keys.Refresh, "r", "refresh"),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		columnLeft:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		columnRight: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		cardUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		cardDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		shiftUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "shift card up")),
		shiftDown:   key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "shift card down")),
		addCard:     binding(keys.AddCard, "a", "add card"),
		editCard:    binding(keys.EditCard, "e", "edit title"),
		archive:     binding(keys.Archive, "A", "archive finished"),
		copyTitle:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		boardView:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "board")),
		habitsView:  binding(keys.HabitsView, "2", "habits"),
		heatmapView: binding(keys.HeatmapView, "3", "heatmap"),
		toggleHabit: key.NewBinding(key.WithKeys("enter", " ", "space"), key.WithHelp("enter", "toggle habit")),
		addHabit:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new habit")),
		deleteHabit: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete habit")),
		yearBack:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous year")),
		yearForward: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next year")),
		cycleMode:   binding(keys.CycleMode, "m", "cycle metric"),
		openDetail:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "day detail")),
	}
}

// parseBindingKeys expands a configured key string into the matcher keys
// bubbletea reports plus the help label to display. "space" matches both
// spellings and an uppercase rune also matches its shift chord.
func parseBindingKeys(configured, fallback string) ([]string, string) {
	k := strings.TrimSpace(configured)
	if k == "" {
		k = fallback
	}
	if k == " " || strings.EqualFold(k, "space") {
		return []string{" ", "space"}, "space"
	}
	runes := []rune(k)
	if len(runes) == 1 {
		if unicode.IsUpper(runes[0]) {
			return []string{k, "shift+" + strings.ToLower(k)}, k
		}
		return []string{k}, k
	}
	return []string{strings.ToLower(k)}, k
}

// binding builds a binding from a configured key, falling back when the
// config value is empty.
func binding(configured, fallback, help string) key.Binding {
	keys, label := parseBindingKeys(configured, fallback)
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, help))
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addCard, k.editCard, k.refresh, k.habitsView, k.heatmapView, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addCard, k.editCard, k.archive, k.copyTitle, k.refresh, k.toggleHelp, k.quit},
		{k.columnLeft, k.columnRight, k.cardUp, k.cardDown, k.shiftUp, k.shiftDown},
		{k.boardView, k.habitsView, k.heatmapView, k.toggleHabit, k.addHabit, k.deleteHabit},
		{k.yearBack, k.yearForward, k.cycleMode, k.openDetail},
	}
}
