package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	zmqffi "github.com/semifor/zmq-ffi"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	recvStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	sentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxLogLines = 500

// pumpEvent is one observation from the socket pump: a received message, a
// confirmation of an accepted input line, or an error. done marks the pump
// as finished (context torn down).
type pumpEvent struct {
	parts [][]byte
	note  string
	sent  bool
	err   error
	done  bool
}

type monitorModel struct {
	endpoint string
	typ      consts.SocketType
	subMode  bool

	input   textinput.Model
	lines   []string
	recvN   int
	sentN   int
	lastErr error

	events <-chan pumpEvent
	inputs chan<- string
	stop   func()

	width  int
	height int
	done   bool
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitEvent)
}

func (m *monitorModel) waitEvent() tea.Msg {
	return <-m.events
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pumpEvent:
		m.apply(msg)
		if m.done {
			return m, nil
		}
		return m, m.waitEvent

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.stop()
			return m, tea.Quit

		case "enter":
			line := m.input.Value()
			// An empty subscription prefix means subscribe to everything.
			if line == "" && !m.subMode {
				return m, nil
			}
			select {
			case m.inputs <- line:
				m.input.Reset()
			default:
				m.lastErr = fmt.Errorf("input queue full")
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *monitorModel) apply(ev pumpEvent) {
	switch {
	case ev.err != nil:
		m.lastErr = ev.err
		if ev.done {
			m.done = true
		}
	case ev.parts != nil:
		m.recvN++
		text := make([]string, len(ev.parts))
		for i, p := range ev.parts {
			text[i] = string(p)
		}
		m.log(recvStyle.Render("< " + strings.Join(text, " | ")))
	case ev.sent:
		m.sentN++
		m.log(sentStyle.Render("> " + ev.note))
	case ev.note != "":
		m.log(noteStyle.Render("+ " + ev.note))
	}
}

func (m *monitorModel) log(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
}

func (m *monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("zmqcat"))
	b.WriteString(fmt.Sprintf(" %s (%s)\n\n", m.endpoint, m.typ))

	visible := m.lines
	max := m.height - 7
	if max < 1 {
		max = 10
	}
	if len(visible) > max {
		visible = visible[len(visible)-max:]
	}
	for _, line := range visible {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(fmt.Sprintf("recv %d  sent %d", m.recvN, m.sentN)))
	if m.lastErr != nil {
		b.WriteString("  ")
		b.WriteString(errorStyle.Render(m.lastErr.Error()))
	}
	b.WriteString("\n")

	if m.done {
		b.WriteString(helpStyle.Render("engine gone • esc quit"))
		return b.String()
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	help := "enter send • esc quit"
	if m.subMode {
		help = "enter subscribe • esc quit"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

// pump is the only goroutine that touches the socket while the monitor
// runs: it drains input lines and polls for inbound messages. Errors are
// reported but only a torn-down socket or context stops the pump.
func pump(s zmqffi.Socket, typ consts.SocketType, inputs <-chan string, events chan<- pumpEvent, quit <-chan struct{}) {
	emit := func(ev pumpEvent) bool {
		select {
		case events <- ev:
			return true
		case <-quit:
			return false
		}
	}

	subMode := typ == consts.Sub
	canRecv := typ != consts.Pub && typ != consts.Push
	awaitingReply := false

	for {
		select {
		case <-quit:
			return
		case line := <-inputs:
			var ev pumpEvent
			switch {
			case subMode:
				if err := s.Subscribe(line); err != nil {
					ev = pumpEvent{err: err, done: fatalErr(err)}
				} else if line == "" {
					ev = pumpEvent{note: "subscribed to everything"}
				} else {
					ev = pumpEvent{note: "subscribed " + line}
				}
			default:
				if err := s.Send([]byte(line), 0); err != nil {
					ev = pumpEvent{err: err, done: fatalErr(err)}
				} else {
					ev = pumpEvent{sent: true, note: line}
					if typ == consts.Req {
						awaitingReply = true
					}
				}
			}
			if !emit(ev) || ev.done {
				return
			}
			continue
		default:
		}

		// Req sockets alternate strictly; polling out of turn trips the
		// engine's state machine.
		poll := canRecv
		if typ == consts.Req {
			poll = awaitingReply
		}
		if poll {
			parts, err := s.RecvMultipart(consts.FlagDontWait)
			switch {
			case err == nil:
				if typ == consts.Req {
					awaitingReply = false
				}
				if !emit(pumpEvent{parts: parts}) {
					return
				}
				continue
			case wouldBlock(err):
			default:
				fatal := fatalErr(err)
				if !emit(pumpEvent{err: err, done: fatal}) || fatal {
					return
				}
			}
		}

		select {
		case <-quit:
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func wouldBlock(err error) bool {
	code, ok := errors.ErrnoOf(err)
	return ok && code == consts.EAgain
}

func fatalErr(err error) bool {
	if errors.IsKind(err, errors.KindClosed) {
		return true
	}
	code, ok := errors.ErrnoOf(err)
	return ok && (code == consts.ETerm || code == consts.ENotSock)
}

func runMonitor(s zmqffi.Socket, p *Profile) error {
	events := make(chan pumpEvent, 64)
	inputs := make(chan string, 16)
	quit := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(quit) }) }

	typ := p.SocketType()
	go pump(s, typ, inputs, events, quit)

	ti := textinput.New()
	ti.Placeholder = "message"
	if typ == consts.Sub {
		ti.Placeholder = "subscription prefix"
	}
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	m := &monitorModel{
		endpoint: p.Endpoint,
		typ:      typ,
		subMode:  typ == consts.Sub,
		input:    ti,
		events:   events,
		inputs:   inputs,
		stop:     stop,
	}

	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	stop()
	return err
}
