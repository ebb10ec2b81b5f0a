package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mcfloy/launchpad/internal/audio"
	"github.com/Mcfloy/launchpad/internal/midi"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8FAFC")).
			Background(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E2E8F0"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	modelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))
)

// printDevices lists every MIDI port and audio output, marking the MIDI
// ports a profile exists for. m is left open.
func printDevices(w io.Writer, m *midi.Manager) error {
	var b strings.Builder
	section(&b, "MIDI inputs", m.ListInPorts(), midiDetail)
	section(&b, "MIDI outputs", m.ListOutPorts(), midiDetail)

	if err := audio.Initialize(); err != nil {
		fmt.Fprint(w, b.String())
		return err
	}
	defer audio.Terminate()

	devices, err := audio.ListDevices()
	if err != nil {
		fmt.Fprint(w, b.String())
		return err
	}
	names := make([]string, len(devices))
	details := make(map[string]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
		detail := fmt.Sprintf("%s, %d ch, %.0f Hz", d.HostAPI, d.Channels, d.SampleRate)
		if d.Default {
			detail += ", default"
		}
		details[d.Name] = mutedStyle.Render(detail)
	}
	section(&b, "Audio outputs", names, func(name string) string { return details[name] })

	_, err = fmt.Fprint(w, b.String())
	return err
}

func section(b *strings.Builder, title string, names []string, detail func(string) string) {
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	if len(names) == 0 {
		b.WriteString("  " + mutedStyle.Render("none") + "\n\n")
		return
	}
	for _, name := range names {
		b.WriteString("  " + nameStyle.Render(name))
		if d := detail(name); d != "" {
			b.WriteString("  " + d)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func midiDetail(name string) string {
	p, err := midi.SelectProfile(name)
	if err != nil {
		return ""
	}
	return modelStyle.Render(string(p.Model))
}
