package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/charmbracelet/bubbletea"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/nfnt/resize"
)

// Check if terminal supports Kitty graphics protocol
func supportsKittyGraphics() bool {
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	if strings.Contains(term, "kitty") || strings.Contains(term, "konsole") {
		return true
	}

	// Ghostty and WezTerm only identify through TERM_PROGRAM
	if termProgram == "ghostty" || termProgram == "WezTerm" {
		return true
	}

	return false
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeArtworkForKitty renders img as Kitty graphics protocol escapes.
func encodeArtworkForKitty(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	cfg := config.Get()

	// Kitty scales to the column width; the pixel width only bounds the payload
	if cfg.Artwork.WidthPixels > 0 && img.Bounds().Dx() > cfg.Artwork.WidthPixels {
		img = resize.Resize(uint(cfg.Artwork.WidthPixels), 0, img, resize.Lanczos3)
	}

	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	// Kitty protocol needs chunking for large payloads (max 4096 bytes per chunk)
	const chunkSize = 4096
	const imageID = 42
	var result strings.Builder

	result.WriteString(fmt.Sprintf("\033_Ga=d,d=I,i=%d\033\\", imageID))

	if len(encoded) <= chunkSize {
		result.WriteString(fmt.Sprintf("\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1;%s\033\\", imageID, cfg.Artwork.WidthColumns, encoded))
		return result.String(), nil
	}

	for i := 0; i < len(encoded); i += chunkSize {
		end := min(i+chunkSize, len(encoded))
		chunk := encoded[i:end]

		switch {
		case i == 0:
			result.WriteString(fmt.Sprintf("\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1,m=1;%s\033\\", imageID, cfg.Artwork.WidthColumns, chunk))
		case end == len(encoded):
			result.WriteString(fmt.Sprintf("\033_Gm=0;%s\033\\", chunk))
		default:
			result.WriteString(fmt.Sprintf("\033_Gm=1;%s\033\\", chunk))
		}
	}

	return result.String(), nil
}

// thumbnailDataURL encodes a thumbnail for the overlay's <img src>.
func thumbnailDataURL(thumb *nowplaying.Thumbnail) (string, error) {
	if thumb == nil || thumb.Image == nil {
		return "", nil
	}
	data, err := encodePNG(thumb.Image)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Kitty-encoded artwork for one thumbnail
type artworkMsg struct {
	thumb   *nowplaying.Thumbnail
	encoded string
}

// Encode artwork in background (doesn't block UI)
func artworkCmd(thumb *nowplaying.Thumbnail) tea.Cmd {
	return func() tea.Msg {
		encoded, err := encodeArtworkForKitty(thumb.Image)
		if err != nil {
			return artworkMsg{thumb: thumb}
		}
		return artworkMsg{thumb: thumb, encoded: encoded}
	}
}
