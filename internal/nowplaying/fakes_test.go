package nowplaying

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

type fakeInfo struct {
	mu       sync.Mutex
	payloads []Payload
	errs     []error
	calls    int
}

func (f *fakeInfo) NowPlayingInfo(ctx context.Context) (Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.payloads) {
		return f.payloads[i], nil
	}
	if len(f.payloads) > 0 {
		return f.payloads[len(f.payloads)-1], nil
	}
	return nil, nil
}

type fakeClient struct {
	id    string
	err   error
	panic bool
	got   []byte
}

func (f *fakeClient) ResolveClient(ctx context.Context, blob []byte) (string, error) {
	if f.panic {
		panic("MRClient class missing")
	}
	f.got = blob
	return f.id, f.err
}

type fakeCommands struct {
	sent []CommandCode
	err  error
}

func (f *fakeCommands) SendCommand(ctx context.Context, code CommandCode) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, code)
	return nil
}

type fakeElapsed struct {
	set []float64
	err error
}

func (f *fakeElapsed) SetElapsedTime(ctx context.Context, seconds float64) error {
	if f.err != nil {
		return f.err
	}
	f.set = append(f.set, seconds)
	return nil
}

type fakeAutomation struct {
	scripts []AutomationScript
	err     error
}

func (f *fakeAutomation) Run(ctx context.Context, script AutomationScript) error {
	if f.err != nil {
		return f.err
	}
	f.scripts = append(f.scripts, script)
	return nil
}

// scriptedFetcher returns queued results in order and keeps repeating the
// last one. With nothing queued it reports Unavailable.
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (f *scriptedFetcher) push(snap Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, fetchResult{snap: snap, err: err})
}

func (f *scriptedFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return Snapshot{}, ErrServiceUnavailable
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.snap, r.err
}

func (f *scriptedFetcher) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePrefs struct{ seek bool }

func (p fakePrefs) SeekMode() bool { return p.seek }

// countingDecoder records how many times artwork was decoded.
type countingDecoder struct {
	calls int
	fail  bool
}

func (d *countingDecoder) decode(data []byte) (*Thumbnail, error) {
	d.calls++
	if d.fail {
		return nil, errors.New("bad image")
	}
	return &Thumbnail{Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}, nil
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
