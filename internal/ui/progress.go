// Package ui renders build progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"whistle/internal/buildpipeline"
)

type progressModel struct {
	title      string
	events     <-chan buildpipeline.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []fileItem
	index      map[string]int
	stageLabel string
	finalStage buildpipeline.Stage
	width      int
	done       bool
}

type fileItem struct {
	path    string
	status  string
	stage   buildpipeline.Stage
	elapsed time.Duration
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders pipeline progress.
// A file counts as complete once finalStage reports done.
func NewProgressModel(title string, files []string, finalStage buildpipeline.Stage, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:      title,
		events:     events,
		spinner:    sp,
		prog:       prog,
		items:      items,
		index:      index,
		finalStage: finalStage,
		width:      80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := buildpipeline.Event(msg)
		cmd := m.applyEvent(ev)
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	var b strings.Builder

	prefix := m.spinner.View() + " "
	if m.done {
		prefix = "done: "
	}
	header := prefix + m.title
	if m.stageLabel != "" {
		header += " (" + m.stageLabel + ")"
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 12
	nameWidth := max(m.width-statusWidth-14, 20)
	for _, item := range m.items {
		fmt.Fprintf(&b, "  %s %s", statusStyle(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status)), truncate(item.path, nameWidth))
		if item.elapsed > 0 {
			b.WriteString(elapsedStyle.Render(fmt.Sprintf("  %.1fms", float64(item.elapsed)/float64(time.Millisecond))))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	label := statusLabel(ev.Stage, ev.Status)
	if ev.File == "" {
		if label != "" {
			m.stageLabel = label
		}
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	if label != "" {
		item.status = label
		item.stage = ev.Stage
	}
	item.elapsed += ev.Elapsed
	return m.prog.SetPercent(m.percent())
}

// percent averages per-file progress. A file that finished its last
// stage, or failed, counts as complete.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		switch {
		case item.status == "error":
			total += 1.0
		case item.status == "done" && item.stage == m.finalStage:
			total += 1.0
		default:
			total += progressFromStage(item.stage, item.status == "done")
		}
	}
	return total / float64(len(m.items))
}

// stageWeights is the share of a file's progress reached once the stage has
// started.
var stageWeights = map[buildpipeline.Stage]float64{
	buildpipeline.StagePreprocess: 0.05,
	buildpipeline.StageParse:      0.2,
	buildpipeline.StageCheck:      0.4,
	buildpipeline.StageGenerate:   0.6,
	buildpipeline.StageWrite:      0.85,
	buildpipeline.StageRun:        0.9,
}

var nextStage = map[buildpipeline.Stage]buildpipeline.Stage{
	buildpipeline.StagePreprocess: buildpipeline.StageParse,
	buildpipeline.StageParse:      buildpipeline.StageCheck,
	buildpipeline.StageCheck:      buildpipeline.StageGenerate,
	buildpipeline.StageGenerate:   buildpipeline.StageWrite,
	buildpipeline.StageWrite:      buildpipeline.StageRun,
}

func progressFromStage(stage buildpipeline.Stage, done bool) float64 {
	if done {
		if next, ok := nextStage[stage]; ok {
			return stageWeights[next]
		}
		return 1.0
	}
	return stageWeights[stage]
}

func statusLabel(stage buildpipeline.Stage, status buildpipeline.Status) string {
	switch status {
	case buildpipeline.StatusQueued:
		return "queued"
	case buildpipeline.StatusDone:
		return "done"
	case buildpipeline.StatusError:
		return "error"
	case buildpipeline.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StagePreprocess:
		return "expanding"
	case buildpipeline.StageParse:
		return "parsing"
	case buildpipeline.StageCheck:
		return "checking"
	case buildpipeline.StageGenerate:
		return "generating"
	case buildpipeline.StageWrite:
		return "writing"
	case buildpipeline.StageRun:
		return "running"
	default:
		return ""
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	elapsedStyle = lipgloss.NewStyle().Faint(true)
	statusColors = map[string]lipgloss.Color{
		"done":  "2",
		"error": "1",
	}
)

// statusStyle colors terminal states; stages in flight are cyan.
func statusStyle(status string) lipgloss.Style {
	if c, ok := statusColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	if status == "queued" || status == "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
