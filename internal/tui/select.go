// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
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

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *bookmeta.CandidateRecord
}

type candidateItem struct {
	bookmeta.CandidateRecord
}

func (i candidateItem) Title() string {
	return fmt.Sprintf("%s (%s)", strings.ToUpper(i.CandidateRecord.Title), i.Source)
}

func (i candidateItem) FilterValue() string {
	return i.CandidateRecord.Title
}

func (i candidateItem) Description() string {
	return i.CandidateRecord.Description
}

type itemStyles struct {
	normal        lipgloss.Style
	selected      lipgloss.Style
	sourceStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	metadataStyle lipgloss.Style
	summaryStyle  lipgloss.Style
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
		BorderForeground(lipgloss.Color("60")).
		Padding(0, 1).
		Foreground(lipgloss.Color("250"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("178")).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("236"))

	return itemStyles{
		normal:   container,
		selected: selected,
		sourceStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75")),
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Faint(true),
		summaryStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")),
	}
}

type candidateDelegate struct {
	styles itemStyles
}

func newDelegate() candidateDelegate {
	return candidateDelegate{styles: newItemStyles()}
}

func (d candidateDelegate) Height() int                         { return 4 }
func (d candidateDelegate) Spacing() int                        { return 1 }
func (d candidateDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d candidateDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	candidate, ok := item.(candidateItem)
	if !ok {
		return
	}

	summary := candidate.CandidateRecord.Description
	if len(summary) > 0 {
		summary = truncate(summary, m.Width()-4)
	}

	sourceLine := d.styles.sourceStyle.Render(fmt.Sprintf("[%s]", strings.ToUpper(string(candidate.Source))))
	titleLine := d.styles.titleStyle.Render(candidateTitle(candidate.CandidateRecord))
	metadataLine := d.styles.metadataStyle.Render(formatMetadata(candidate.CandidateRecord, m.Width()-4))
	summaryLine := d.styles.summaryStyle.Render(summary)

	content := lipgloss.JoinVertical(lipgloss.Left, sourceLine, titleLine, metadataLine, summaryLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

func candidateTitle(c bookmeta.CandidateRecord) string {
	title := c.Title
	if c.Subtitle != "" {
		title += ": " + c.Subtitle
	}
	if c.PublishedYear != nil {
		title += fmt.Sprintf(" (%d)", *c.PublishedYear)
	}
	return title
}

type model struct {
	list        list.Model
	searchTitle string
	result      SelectionResult
}

func newModel(title string, items []candidateItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	delegate := newDelegate()
	l := list.New(listItems, delegate, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:        l,
		searchTitle: title,
		result: SelectionResult{
			Action: ActionNone,
		},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(candidateItem); ok {
				result := selected.CandidateRecord
				m.result = SelectionResult{
					Action:    ActionSelected,
					Selection: &result,
				}
				return m, tea.Quit
			}
		case "s":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		case "esc":
			m.result = SelectionResult{Action: ActionSkipped}
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
	header := headerStyle.Render(fmt.Sprintf("Multiple results found for: %s", m.searchTitle))
	listView := m.list.View()
	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		skipButtonStyle.Render(" Skip "),
		lipgloss.NewStyle().Padding(0, 2).Render(""),
		stopButtonStyle.Render(" Stop Processing "),
	)
	help := helpStyle.Render("Up/Down navigate | Enter select | s skip | q stop")
	return lipgloss.JoinVertical(lipgloss.Left, header, listView, buttons, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("178")).
			MarginBottom(1)

	skipButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("172")).
			Foreground(lipgloss.Color("16")).
			Bold(true)

	stopButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("160")).
			Foreground(lipgloss.Color("231")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("242"))
)

// SelectCandidate presents an interactive selection UI for provider
// search results. Untitled candidates are filtered out before display.
func SelectCandidate(title string, candidates []bookmeta.CandidateRecord) (SelectionResult, error) {
	usable := UsableCandidates(candidates)
	if len(usable) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	items := make([]candidateItem, len(usable))
	for i, candidate := range usable {
		items[i] = candidateItem{CandidateRecord: candidate}
	}
	m := newModel(title, items)
	finalModel, err := runProgram(m)
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}

	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

// UsableCandidates filters out candidates with no title, which cannot be
// displayed or matched meaningfully.
func UsableCandidates(candidates []bookmeta.CandidateRecord) []bookmeta.CandidateRecord {
	usable := make([]bookmeta.CandidateRecord, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.Title) != "" {
			usable = append(usable, candidate)
		}
	}
	return usable
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

// formatMetadata creates the metadata line with authors, publisher, ISBN,
// and page count.
func formatMetadata(candidate bookmeta.CandidateRecord, availableWidth int) string {
	var parts []string

	if len(candidate.Authors) > 0 {
		parts = append(parts, strings.Join(candidate.Authors, ", "))
	}

	if candidate.Publisher != "" {
		parts = append(parts, candidate.Publisher)
	}

	if candidate.ISBN13 != "" {
		parts = append(parts, candidate.ISBN13)
	} else if candidate.ISBN10 != "" {
		parts = append(parts, candidate.ISBN10)
	}

	if candidate.PageCount != nil && *candidate.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("%dp", *candidate.PageCount))
	}

	if candidate.Rating != nil && *candidate.Rating > 0 {
		parts = append(parts, fmt.Sprintf("%.1f/5", *candidate.Rating))
	}

	if len(parts) == 0 {
		return "No metadata available"
	}

	metadata := strings.Join(parts, " | ")
	if availableWidth > 0 && len(metadata) > availableWidth {
		metadata = truncate(metadata, availableWidth)
	}

	return metadata
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
