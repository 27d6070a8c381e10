package nowplaying

import (
	"encoding/base64"
	"image/color"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestDecodeArtwork(t *testing.T) {
	raw := pngBytes(t, solidImage(10, 10, color.RGBA{255, 0, 0, 255}))

	t.Run("raw bytes", func(t *testing.T) {
		img, err := DecodeArtwork(raw)
		require.NoError(t, err)
		assert.Equal(t, 10, img.Bounds().Dx())
	})

	t.Run("base64 encoded", func(t *testing.T) {
		img, err := DecodeArtwork([]byte(base64.StdEncoding.EncodeToString(raw)))
		require.NoError(t, err)
		assert.NotNil(t, img)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := DecodeArtwork([]byte{})
		assert.Error(t, err)
	})

	t.Run("invalid data", func(t *testing.T) {
		_, err := DecodeArtwork([]byte("not an image"))
		assert.Error(t, err)
	})
}

func TestDecodeThumbnail(t *testing.T) {
	raw := pngBytes(t, solidImage(40, 20, color.RGBA{30, 120, 220, 255}))

	thumb, err := DecodeThumbnail(raw, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, thumb.Image.Bounds().Dx())
	assert.Equal(t, 10, thumb.Image.Bounds().Dy())
	assert.Regexp(t, hexColor, thumb.Accent)

	small, err := DecodeThumbnail(raw, 100)
	require.NoError(t, err)
	assert.Equal(t, 40, small.Image.Bounds().Dx(), "never upscaled")
}

func TestAccentColor(t *testing.T) {
	t.Run("vibrant", func(t *testing.T) {
		c, err := AccentColor(solidImage(50, 50, color.RGBA{255, 0, 0, 255}))
		require.NoError(t, err)
		assert.Equal(t, "#ff0000", c)
	})

	t.Run("gradient", func(t *testing.T) {
		img := solidImage(50, 50, color.RGBA{0, 0, 255, 255})
		for y := 0; y < 50; y++ {
			for x := 0; x < 25; x++ {
				img.Set(x, y, color.RGBA{0, uint8(y * 5), 200, 255})
			}
		}
		c, err := AccentColor(img)
		require.NoError(t, err)
		assert.Regexp(t, hexColor, c)
	})

	t.Run("grey falls back to kmeans", func(t *testing.T) {
		c, err := AccentColor(solidImage(50, 50, color.RGBA{128, 128, 128, 255}))
		if err != nil {
			t.Logf("no accent for flat grey: %v", err)
			return
		}
		assert.Regexp(t, hexColor, c)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := AccentColor(nil)
		assert.Error(t, err)
	})
}
