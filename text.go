package main

import (
	"fmt"

	"github.com/justinmdickey/goplaying/internal/nowplaying"
)

// formatTime converts seconds to MM:SS format
func formatTime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

const scrollSeparator = "  •  "

// scrollText returns a scrolling window of text with smooth looping
func scrollText(text string, max int, offset int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	fullText := append(runes, []rune(scrollSeparator)...)
	textLen := len(fullText)
	offset = offset % textLen

	var result []rune
	for i := 0; i < max; i++ {
		result = append(result, fullText[(offset+i)%textLen])
	}
	return string(result)
}

// longestField is the rune length of the longest scrolling line.
func longestField(s nowplaying.PlaybackState) int {
	longest := 0
	for _, f := range []string{s.Track, s.Artist, s.Album} {
		longest = max(longest, len([]rune(f)))
	}
	return longest
}

// sourceLabel marks guessed sources so users know controls may misfire.
func sourceLabel(s nowplaying.PlaybackState) string {
	switch s.SourceKind {
	case nowplaying.SourceInferred:
		return s.ActiveSource + " (guessed)"
	default:
		return s.ActiveSource
	}
}

func statusText(s nowplaying.PlaybackState) string {
	if s.IsPlaying {
		return "Playing"
	}
	return "Paused"
}
