package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	cfg := config.Get()

	// Interpolated position for a smooth progress bar
	currentPos := m.state.Position(m.now())
	var progress float64
	if m.state.Duration > 0 {
		progress = currentPos / m.state.Duration
	}

	color := lipgloss.Color(m.color)
	highlight := lipgloss.NewStyle().Foreground(color)
	white := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)

	labelStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	badgeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(color).Padding(0, 1)

	var textContent strings.Builder
	var progressBarContent string

	header := highlight.Render("󰓃 Now Playing")
	if m.seekMode {
		header += " " + badgeStyle.Render("SEEK")
	}
	textContent.WriteString(header + "\n\n")

	if m.state.Idle() {
		textContent.WriteString(mutedStyle.Render("Nothing playing") + "\n\n")
		textContent.WriteString(dimStyle.Render("Start playing music to begin"))
	} else {
		addLine := func(label, value string) {
			if value != "" {
				textContent.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(label), value))
			}
		}

		maxLen := cfg.Text.MaxLengthWithArt
		if !m.artworkVisible() {
			maxLen = cfg.Text.MaxLengthNoArt
		}

		addLine("󰎈 ", scrollText(m.state.Track, maxLen, m.scrollOffset))
		addLine("󰠃 ", scrollText(m.state.Artist, maxLen, m.scrollOffset))
		addLine("󰀥 ", scrollText(m.state.Album, maxLen, m.scrollOffset))

		statusIcon := "󰏤 "
		if m.state.IsPlaying {
			statusIcon = "󰐊 "
		}
		addLine(statusIcon, statusText(m.state))
		addLine("󰓇 ", dimStyle.Render(scrollText(sourceLabel(m.state), maxLen, 0)))

		if progress > 0 {
			barWidth := cfg.UI.MaxWidth - 17
			filled := min(int(float64(barWidth)*progress), barWidth)
			progressBar := highlight.Render(strings.Repeat("█", filled)) +
				white.Render(strings.Repeat("─", barWidth-filled))

			progressBarContent = fmt.Sprintf(
				"\n%s %s/%s",
				progressBar,
				highlight.Render(formatTime(int64(currentPos))),
				highlight.Render(formatTime(int64(m.state.Duration))),
			)
		}
	}

	if m.lastError != nil {
		textContent.WriteString("\n" + errorStyle.Render("Error: "+m.lastError.Error()))
	}

	var topSection string
	if m.artworkEncoded != "" && m.artworkVisible() {
		paddedText := lipgloss.NewStyle().
			PaddingLeft(cfg.Artwork.Padding).
			Render(textContent.String())
		topSection = m.artworkEncoded + paddedText
	} else if m.supportsKitty {
		// Delete any image left over from a previous track
		topSection = "\033_Ga=d,d=A\033\\" + textContent.String()
	} else {
		topSection = textContent.String()
	}

	contentStr := borderStyle.
		Width(cfg.UI.MaxWidth).
		Render(topSection + progressBarContent)

	var helpText string
	if m.showHelp {
		helpText = lipgloss.NewStyle().
			Width(cfg.UI.MaxWidth).
			Align(lipgloss.Center).
			Render(lipgloss.JoinHorizontal(
				lipgloss.Center,
				"Play/Pause: "+highlight.Render("p"),
				"  Next: "+highlight.Render("n"),
				"  Previous: "+highlight.Render("b"),
				"  Seek Mode: "+highlight.Render("s"),
				"  Toggle Art: "+highlight.Render("a"),
				"  Quit: "+highlight.Render("q"),
				"  Hide: "+highlight.Render("?"),
			))
	} else {
		helpText = mutedStyle.Render("Press ? for help")
	}

	fullUI := lipgloss.JoinVertical(lipgloss.Center, contentStr, "\n"+helpText)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		fullUI,
	)
}
