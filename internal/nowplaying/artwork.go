package nowplaying

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// DecodeFunc turns raw artwork bytes into a Thumbnail.
type DecodeFunc func(data []byte) (*Thumbnail, error)

// ThumbnailDecoder returns a DecodeFunc resizing artwork to width pixels
// (aspect preserved). width <= 0 keeps the original size.
func ThumbnailDecoder(width int) DecodeFunc {
	return func(data []byte) (*Thumbnail, error) {
		return DecodeThumbnail(data, width)
	}
}

// DecodeThumbnail decodes base64-encoded or raw image data, scales it and
// extracts an accent colour.
func DecodeThumbnail(data []byte, width int) (*Thumbnail, error) {
	img, err := DecodeArtwork(data)
	if err != nil {
		return nil, err
	}
	if width > 0 && img.Bounds().Dx() > width {
		img = resize.Resize(uint(width), 0, img, resize.Lanczos3)
	}
	thumb := &Thumbnail{Image: img}
	if c, err := AccentColor(img); err == nil {
		thumb.Accent = c
	}
	return thumb, nil
}

// DecodeArtwork accepts base64 (MediaRemote JSON, some MPRIS players) or raw
// image bytes.
func DecodeArtwork(data []byte) (image.Image, error) {
	raw := data
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil {
		raw = decoded
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// AccentColor picks a vibrant, reasonably light colour from img, suitable on
// a dark background, and returns it as hex.
func AccentColor(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	bounds := img.Bounds()

	// Sample every 5th pixel
	counts := make(map[uint32]int)
	const sampleRate = 5
	for y := bounds.Min.Y; y < bounds.Max.Y; y += sampleRate {
		for x := bounds.Min.X; x < bounds.Max.X; x += sampleRate {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 32768 {
				continue
			}
			rgb := (uint32(uint8(r>>8)) << 16) | (uint32(uint8(g>>8)) << 8) | uint32(uint8(b>>8))
			counts[rgb]++
		}
	}

	type candidate struct {
		rgb   uint32
		score float64
	}
	var candidates []candidate

	for rgb, count := range counts {
		lightness, saturation := hsl(rgb)

		// Too dark, near-white or washed out
		if lightness < 0.3 || lightness > 0.85 || saturation < 0.25 {
			continue
		}

		lightnessScore := lightness
		if lightness > 0.7 {
			lightnessScore = 0.7 - (lightness - 0.7)
		}
		score := saturation*2.5 + lightnessScore*1.5 + float64(count)/1000.0
		candidates = append(candidates, candidate{rgb: rgb, score: score})
	}

	if len(candidates) == 0 {
		colors, err := prominentcolor.Kmeans(img)
		if err != nil || len(colors) == 0 {
			return "", fmt.Errorf("no suitable colors found")
		}
		c := colors[0]
		return fmt.Sprintf("#%02x%02x%02x", c.Color.R, c.Color.G, c.Color.B), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].rgb < candidates[j].rgb
		}
		return candidates[i].score > candidates[j].score
	})
	best := candidates[0].rgb
	return fmt.Sprintf("#%02x%02x%02x", uint8(best>>16), uint8(best>>8), uint8(best)), nil
}

func hsl(rgb uint32) (lightness, saturation float64) {
	rf := float64(uint8(rgb>>16)) / 255.0
	gf := float64(uint8(rgb>>8)) / 255.0
	bf := float64(uint8(rgb)) / 255.0

	hi := max(rf, gf, bf)
	lo := min(rf, gf, bf)
	lightness = (hi + lo) / 2.0
	if hi != lo {
		if lightness > 0.5 {
			saturation = (hi - lo) / (2.0 - hi - lo)
		} else {
			saturation = (hi - lo) / (hi + lo)
		}
	}
	return lightness, saturation
}
