package platform

import (
	"encoding/base64"
	"strings"

	"github.com/justinmdickey/goplaying/internal/nowplaying"
)

// mediaRemoteKeys maps MediaRemote now-playing dictionary keys to canonical
// payload keys.
var mediaRemoteKeys = map[string]string{
	"kMRMediaRemoteNowPlayingInfoTitle":                nowplaying.KeyTitle,
	"kMRMediaRemoteNowPlayingInfoArtist":               nowplaying.KeyArtist,
	"kMRMediaRemoteNowPlayingInfoAlbum":                nowplaying.KeyAlbum,
	"kMRMediaRemoteNowPlayingInfoPlaybackRate":         nowplaying.KeyPlaybackRate,
	"kMRMediaRemoteNowPlayingInfoElapsedTime":          nowplaying.KeyElapsedTime,
	"kMRMediaRemoteNowPlayingInfoDuration":             nowplaying.KeyDuration,
	"kMRMediaRemoteNowPlayingInfoArtworkData":          nowplaying.KeyArtworkData,
	"kMRMediaRemoteNowPlayingInfoClientPropertiesData": nowplaying.KeyClientPropertiesData,
	"kMRMediaRemoteNowPlayingInfoMediaType":            nowplaying.KeyMediaType,
	"kMRMediaRemoteNowPlayingInfoTrackNumber":          nowplaying.KeyTrackNumber,
	"kMRMediaRemoteNowPlayingInfoTimestamp":            nowplaying.KeyCurrentPlaybackDate,
}

// translateMediaRemote converts the JSON-decoded MediaRemote dictionary.
// Binary values arrive base64 encoded; artwork stays encoded since the
// artwork decoder accepts both forms, the client blob is decoded.
func translateMediaRemote(raw map[string]any) nowplaying.Payload {
	p := make(nowplaying.Payload, len(raw))
	for k, v := range raw {
		key, ok := mediaRemoteKeys[k]
		if !ok || v == nil {
			continue
		}
		switch key {
		case nowplaying.KeyMediaType:
			if mt := mediaType(v); mt != "" {
				p[key] = mt
			}
		case nowplaying.KeyClientPropertiesData:
			s, ok := v.(string)
			if !ok {
				continue
			}
			blob, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				continue
			}
			p[key] = blob
		default:
			p[key] = v
		}
	}
	return p
}

func mediaType(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	switch {
	case strings.Contains(s, "Video"):
		return nowplaying.MediaTypeVideo
	case strings.Contains(s, "Music"), strings.Contains(s, "Audio"):
		return nowplaying.MediaTypeAudio
	default:
		return s
	}
}
