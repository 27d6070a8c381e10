package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/dhowden/tag"
)

var errNoArtwork = errors.New("no artwork available")

// maxArtworkBytes caps remote downloads.
const maxArtworkBytes = 8 << 20

// artLoader fetches artwork referenced by a player and remembers the last
// result, since players repeat the same URL on every poll.
type artLoader struct {
	client *http.Client

	mu   sync.Mutex
	key  string
	data []byte
	err  error
}

func newArtLoader(client *http.Client) *artLoader {
	return &artLoader{client: client}
}

// Load returns artwork from artURL, or from the tags of the local file at
// trackURL when no art URL is set.
func (l *artLoader) Load(ctx context.Context, artURL, trackURL string) ([]byte, error) {
	key := artURL + "\x00" + trackURL
	l.mu.Lock()
	if key == l.key {
		data, err := l.data, l.err
		l.mu.Unlock()
		return data, err
	}
	l.mu.Unlock()

	var data []byte
	var err error
	switch {
	case artURL != "":
		data, err = loadArtURL(ctx, l.client, artURL)
	case trackURL != "":
		var path string
		if path, err = filePath(trackURL); err == nil {
			data, err = embeddedArtwork(path)
		}
	default:
		err = errNoArtwork
	}

	l.mu.Lock()
	l.key, l.data, l.err = key, data, err
	l.mu.Unlock()
	return data, err
}

// loadArtURL handles file:// and http(s):// artwork URLs.
func loadArtURL(ctx context.Context, client *http.Client, artURL string) ([]byte, error) {
	if strings.HasPrefix(artURL, "file://") {
		path, err := filePath(artURL)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork file: %w", err)
		}
		return data, nil
	}

	if strings.HasPrefix(artURL, "http://") || strings.HasPrefix(artURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, artURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download artwork: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("artwork download failed with status: %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork data: %w", err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("unsupported artwork URL scheme: %s", artURL)
}

// embeddedArtwork reads the picture stored in the tags of an audio file.
func embeddedArtwork(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read tags of %s: %w", path, err)
	}
	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, errNoArtwork
	}
	return pic.Data, nil
}

func filePath(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a local file: %s", fileURL)
	}
	return u.Path, nil
}
