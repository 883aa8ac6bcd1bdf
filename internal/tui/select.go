// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/bookscan/internal/identify"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected an item.
	ActionSelected
	// ActionSkipped indicates the user skipped the selection.
	ActionSkipped
	// ActionStopped indicates the user stopped processing entirely.
	ActionStopped
)

func (a SelectionAction) String() string {
	switch a {
	case ActionSelected:
		return "selected"
	case ActionSkipped:
		return "skipped"
	case ActionStopped:
		return "stopped"
	}
	return "none"
}

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *identify.Record
}

type bookItem struct {
	identify.Record
}

func (i bookItem) Title() string {
	return i.Record.Title
}

func (i bookItem) FilterValue() string {
	return i.Record.Title + " " + i.Author
}

func (i bookItem) Description() string {
	return i.Record.Description
}

type itemStyles struct {
	normal        lipgloss.Style
	selected      lipgloss.Style
	titleStyle    lipgloss.Style
	authorStyle   lipgloss.Style
	metadataStyle lipgloss.Style
	subjectStyle  lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		authorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		subjectStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("248")),
	}
}

type bookDelegate struct {
	styles itemStyles
}

func newDelegate() bookDelegate {
	return bookDelegate{styles: newItemStyles()}
}

func (d bookDelegate) Height() int                         { return 4 }
func (d bookDelegate) Spacing() int                        { return 1 }
func (d bookDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d bookDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	book, ok := item.(bookItem)
	if !ok {
		return
	}

	width := m.Width() - 4
	titleLine := d.styles.titleStyle.Render(truncate(book.Record.Title, width))
	authorLine := d.styles.authorStyle.Render(truncate("by "+book.Author, width))
	metadataLine := d.styles.metadataStyle.Render(formatMetadata(book.Record, width))
	subjectLine := d.styles.subjectStyle.Render(truncate(strings.Join(book.Subjects, ", "), width))

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, authorLine, metadataLine, subjectLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list   list.Model
	query  string
	result SelectionResult
}

func newModel(query string, items []bookItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	l := list.New(listItems, newDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:   l,
		query:  query,
		result: SelectionResult{Action: ActionNone},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(bookItem); ok {
				record := selected.Record
				m.result = SelectionResult{Action: ActionSelected, Selection: &record}
				return m, tea.Quit
			}
		case "s", "esc":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Books matching: %s", m.query))
	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		skipButtonStyle.Render(" Skip "),
		lipgloss.NewStyle().Padding(0, 2).Render(""),
		stopButtonStyle.Render(" Stop "),
	)
	help := helpStyle.Render("Up/Down navigate | Enter select | s skip | q stop")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), buttons, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	skipButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("178")).
			Foreground(lipgloss.Color("0")).
			Bold(true)

	stopButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("161")).
			Foreground(lipgloss.Color("230")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// SelectBook lets the user pick one of the search candidates for query.
// A single candidate is selected without showing the UI.
func SelectBook(records []identify.Record, query string) (SelectionResult, error) {
	switch len(records) {
	case 0:
		return SelectionResult{Action: ActionSkipped}, nil
	case 1:
		record := records[0]
		return SelectionResult{Action: ActionSelected, Selection: &record}, nil
	}

	items := make([]bookItem, len(records))
	for i, record := range records {
		items[i] = bookItem{Record: record}
	}

	finalModel, err := runProgram(newModel(query, items))
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}

	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// formatMetadata builds the "year | publisher | pages | ISBN" line
func formatMetadata(record identify.Record, availableWidth int) string {
	var parts []string
	if record.PublishDate != "" {
		parts = append(parts, record.PublishDate)
	}
	if record.Publisher != "" {
		parts = append(parts, record.Publisher)
	}
	if record.Pages > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", record.Pages))
	}
	if record.ISBN != "" {
		parts = append(parts, "ISBN "+record.ISBN)
	}

	if len(parts) == 0 {
		return "No metadata available"
	}
	return truncate(strings.Join(parts, " | "), availableWidth)
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
