package platform

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateMediaRemote(t *testing.T) {
	blob := []byte{0x0a, 0x12, 0x63, 0x6f, 0x6d}
	doc := `{
		"kMRMediaRemoteNowPlayingInfoTitle": "Song A",
		"kMRMediaRemoteNowPlayingInfoArtist": "Artist",
		"kMRMediaRemoteNowPlayingInfoPlaybackRate": 1,
		"kMRMediaRemoteNowPlayingInfoElapsedTime": 42.5,
		"kMRMediaRemoteNowPlayingInfoDuration": 180,
		"kMRMediaRemoteNowPlayingInfoMediaType": "kMRMediaRemoteNowPlayingInfoTypeMusic",
		"kMRMediaRemoteNowPlayingInfoTrackNumber": 4,
		"kMRMediaRemoteNowPlayingInfoClientPropertiesData": "` + base64.StdEncoding.EncodeToString(blob) + `",
		"kMRMediaRemoteNowPlayingInfoUniqueIdentifier": 99
	}`
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))

	p := translateMediaRemote(raw)

	assert.Equal(t, "Song A", p[nowplaying.KeyTitle])
	assert.Equal(t, nowplaying.MediaTypeAudio, p[nowplaying.KeyMediaType])
	assert.Equal(t, blob, p[nowplaying.KeyClientPropertiesData])
	assert.True(t, p.Has(nowplaying.KeyTrackNumber))
	assert.Len(t, p, 8, "unknown keys are dropped")

	snap, err := nowplaying.DecodeSnapshot(p)
	require.NoError(t, err)
	assert.True(t, snap.Playing())
	assert.InDelta(t, 42.5, snap.Elapsed, 0.001)
	assert.InDelta(t, 180.0, snap.Duration, 0.001)
}

func TestTranslateMediaRemoteBrowser(t *testing.T) {
	p := translateMediaRemote(map[string]any{
		"kMRMediaRemoteNowPlayingInfoTitle":     "Video",
		"kMRMediaRemoteNowPlayingInfoTimestamp": 1.7e9,
		"kMRMediaRemoteNowPlayingInfoAlbum":     "",
	})

	assert.Equal(t, "Web Browser", nowplaying.Infer(p))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, nowplaying.MediaTypeVideo, mediaType("kMRMediaRemoteNowPlayingInfoTypeVideo"))
	assert.Equal(t, nowplaying.MediaTypeAudio, mediaType("MRMediaRemoteMediaTypeAudio"))
	assert.Equal(t, "podcast", mediaType("podcast"))
	assert.Equal(t, "", mediaType(3))
}
