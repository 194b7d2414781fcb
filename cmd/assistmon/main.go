// Command assistmon renders a live pipeline event feed in the terminal. It
// runs scripted demo engines through the real runner, so the feed shows
// exactly what a transport would receive.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	pipeline "github.com/krelja/assist-core/core"
	"github.com/krelja/assist-core/core/events"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	kindStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func main() {
	store, err := pipeline.NewStore(newDemoPipeline())
	if err != nil {
		log.Fatalf("failed to create pipeline store: %v", err)
	}
	runner := pipeline.NewRunner(store, newDemoRegistry())
	sink := pipeline.NewChannelSink(256)

	m := newModel(runner, sink)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error running program:", err)
		os.Exit(1)
	}
}

type eventMsg struct {
	event events.Event
}

type runFinishedMsg struct {
	err error
}

type model struct {
	runner *pipeline.Runner
	sink   *pipeline.ChannelSink

	viewport viewport.Model
	ready    bool
	lines    []string
	running  bool
	runs     int
}

func newModel(runner *pipeline.Runner, sink *pipeline.ChannelSink) *model {
	return &model{runner: runner, sink: sink}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.startRun())
}

func (m *model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{event: <-m.sink.Events()}
	}
}

func (m *model) startRun() tea.Cmd {
	if m.running {
		return nil
	}
	m.running = true
	m.runs++

	runner, sink := m.runner, m.sink
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := runner.Run(ctx, pipeline.Input{
			StartStage:      pipeline.StageWakeWord,
			EndStage:        pipeline.StageTts,
			SttStream:       demoAudio(ctx),
			PreRollDuration: 500 * time.Millisecond,
			Sink:            sink,
		})
		return runFinishedMsg{err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.startRun()
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.refreshContent()

	case eventMsg:
		m.lines = append(m.lines, formatEvent(msg.event))
		m.refreshContent()
		return m, m.waitForEvent()

	case runFinishedMsg:
		m.running = false
		if msg.err != nil {
			m.lines = append(m.lines, errorStyle.Render(fmt.Sprintf("run failed: %v", msg.err)))
			m.refreshContent()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) refreshContent() {
	if !m.ready {
		return
	}
	content := strings.Join(m.lines, "\n")
	m.viewport.SetContent(wordwrap.String(content, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *model) View() string {
	if !m.ready {
		return "starting..."
	}
	header := titleStyle.Render(fmt.Sprintf("assist pipeline monitor - run %d", m.runs))
	help := helpStyle.Render("r: new run - q: quit")
	return header + "\n\n" + m.viewport.View() + "\n" + help
}

func formatEvent(event events.Event) string {
	timestamp := detailStyle.Render(event.Timestamp().Format("15:04:05.000"))
	kind := kindStyle.Render(string(event.Kind()))

	detail := ""
	switch e := event.(type) {
	case events.RunStarted:
		detail = fmt.Sprintf("pipeline=%s language=%s", e.PipelineID, e.Language)
	case events.WakeWordStarted:
		detail = fmt.Sprintf("engine=%s timeout=%s", e.Engine, e.Timeout)
	case events.WakeWordEnded:
		detail = fmt.Sprintf("wake_word=%s phrase=%q t=%dms", e.WakeWordID, e.Phrase, e.TimestampMS)
	case events.SttStarted:
		detail = fmt.Sprintf("engine=%s language=%s", e.Engine, e.Language)
	case events.SttVadStarted:
		detail = fmt.Sprintf("t=%dms", e.TimestampMS)
	case events.SttVadEnded:
		detail = fmt.Sprintf("t=%dms", e.TimestampMS)
	case events.SttEnded:
		detail = fmt.Sprintf("text=%q", e.Text)
	case events.IntentStarted:
		detail = fmt.Sprintf("engine=%s input=%q", e.Engine, e.Input)
	case events.IntentEnded:
		detail = fmt.Sprintf("speech=%q conversation=%s", e.Speech, e.ConversationID)
	case events.TtsStarted:
		detail = fmt.Sprintf("engine=%s text=%q", e.Engine, e.Text)
	case events.TtsEnded:
		detail = fmt.Sprintf("media=%s url=%s", e.MediaID, e.URL)
	case events.Error:
		kind = errorStyle.Render(string(event.Kind()))
		detail = fmt.Sprintf("code=%s message=%q", e.Code, e.Message)
	}

	if detail == "" {
		return fmt.Sprintf("%s %s", timestamp, kind)
	}
	return fmt.Sprintf("%s %s %s", timestamp, kind, detailStyle.Render(detail))
}
