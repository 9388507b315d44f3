package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cbegin/seqsynth-go"
	"github.com/cbegin/seqsynth-go/internal/lfo"
	"github.com/cbegin/seqsynth-go/internal/param"
	"github.com/cbegin/seqsynth-go/internal/scheduler"
	"github.com/cbegin/seqsynth-go/internal/stepseq"
)

const refresh = 50 * time.Millisecond

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff")).Reverse(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Width(8)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	cellStyle   = lipgloss.NewStyle().Width(8).Align(lipgloss.Right)
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	in       *seqsynth.Instrument
	meters   scheduler.Meters
	err      error
	quitting bool
}

func newModel(in *seqsynth.Instrument) model {
	return model{in: in}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	store := m.in.Params()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ":
			store.Set(param.SeqEnabled, 1-store.Get(param.SeqEnabled))
		case "p":
			if m.in.IsPlaying() {
				m.in.Pause()
			} else if err := m.in.Play(); err != nil {
				m.err = err
			}
		case "i":
			store.Set(param.SeqInterpolate, 1-store.Get(param.SeqInterpolate))
		case "+", "=":
			m.in.SetTempo(m.in.Tempo() + 5)
		case "-", "_":
			m.in.SetTempo(m.in.Tempo() - 5)
		case "[":
			store.Set(param.SeqTimeStretch, store.Get(param.SeqTimeStretch)-1)
		case "]":
			store.Set(param.SeqTimeStretch, store.Get(param.SeqTimeStretch)+1)
		case "0", "1", "2", "3", "4", "5", "6", "7", "8":
			store.Set(param.SeqSolo, float64(key[0]-'0'))
		}
	case tickMsg:
		m.meters = m.in.Meters()
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	header := []string{labelStyle.Render("")}
	for st := 0; st < param.NumSteps; st++ {
		header = append(header, cellStyle.Render(fmt.Sprintf("%d", st+1)))
	}
	b.WriteString(dimStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, header...)))
	b.WriteString("\n")

	store := m.in.Params()
	for lane, name := range param.LaneNames {
		row := []string{labelStyle.Render(name)}
		for st := 0; st < param.NumSteps; st++ {
			v := m.meters[lane][st]
			style := dimStyle
			text := "·"
			if v != 0 {
				style = activeStyle
				text = formatMeter(store, lane, st, v)
			}
			row = append(row, style.Inherit(cellStyle).Render(text))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		b.WriteString("\n")
	}

	state := "stopped"
	if store.Get(param.SeqEnabled) >= 0.5 {
		state = "running"
	}
	audio := "paused"
	if m.in.IsPlaying() {
		audio = "playing"
	}
	solo := "off"
	if s := int(store.Get(param.SeqSolo)); s > 0 {
		solo = fmt.Sprintf("step %d", s)
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"%s  seq %s  tempo %.0f  stretch %+d  solo %s  interp %v",
		audio, state, m.in.Tempo(), int(store.Get(param.SeqTimeStretch)), solo, store.Get(param.SeqInterpolate) >= 0.5)))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(statusStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render("p pause  space seq  i interp  +/- tempo  [/] stretch  0-8 solo  q quit"))
	b.WriteString("\n")
	return b.String()
}

func formatMeter(store *param.Store, lane, step int, v float64) string {
	switch lane {
	case param.LaneTiming:
		n := int(store.Get(param.StepNoteLen(step)))
		if n >= 0 && n < len(stepseq.NoteLengthNames) {
			return stepseq.NoteLengthNames[n]
		}
		return fmt.Sprintf("%.0fms", v*1000)
	case param.LaneWave:
		w := int(v)
		if w >= 0 && w < len(lfo.WaveNames) {
			return lfo.WaveNames[w]
		}
		return fmt.Sprintf("%d", w)
	case param.LanePitch:
		return fmt.Sprintf("%+.0f", v)
	default:
		return fmt.Sprintf("%+.2f", v)
	}
}
