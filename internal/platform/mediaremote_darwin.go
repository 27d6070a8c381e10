//go:build darwin

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/rs/zerolog"
)

const loadMediaRemote = `ObjC.import('Foundation');
function loadMediaRemote() {
	var b = $.NSBundle.bundleWithPath('/System/Library/PrivateFrameworks/MediaRemote.framework/');
	if (b.isNil() || !b.load) { throw new Error('MediaRemote not loadable'); }
}
`

const probeScript = loadMediaRemote + `
function run() {
	loadMediaRemote();
	if ($.NSClassFromString('MRNowPlayingRequest').isNil()) { return 'missing'; }
	return 'ok';
}`

const infoScript = loadMediaRemote + `
function unwrap(v) {
	if (v.isKindOfClass($.NSData)) { return ObjC.unwrap(v.base64EncodedStringWithOptions(0)); }
	if (v.isKindOfClass($.NSDate)) { return v.timeIntervalSince1970; }
	return ObjC.deepUnwrap(v);
}
function run() {
	loadMediaRemote();
	var item = $.NSClassFromString('MRNowPlayingRequest').localNowPlayingItem;
	if (!item || item.isNil()) { return '{}'; }
	var info = item.nowPlayingInfo;
	if (!info || info.isNil()) { return '{}'; }
	var out = {};
	var keys = ObjC.deepUnwrap(info.allKeys) || [];
	keys.forEach(function (k) { out[k] = unwrap(info.objectForKey(k)); });
	return JSON.stringify(out);
}`

const commandScript = loadMediaRemote + `
function run(argv) {
	loadMediaRemote();
	ObjC.bindFunction('MRMediaRemoteSendCommand', ['bool', ['int', 'id']]);
	return String($.MRMediaRemoteSendCommand(parseInt(argv[0], 10), $()));
}`

const elapsedScript = loadMediaRemote + `
function run(argv) {
	loadMediaRemote();
	ObjC.bindFunction('MRMediaRemoteSetElapsedTime', ['void', ['double']]);
	$.MRMediaRemoteSetElapsedTime(parseFloat(argv[0]));
	return 'ok';
}`

const clientScript = loadMediaRemote + `
function run(argv) {
	loadMediaRemote();
	var data = $.NSData.alloc.initWithBase64EncodedStringOptions(argv[0], 0);
	var client = $.NSClassFromString('MRClient').alloc.initWithData(data);
	if (client.isNil()) { return ''; }
	return ObjC.unwrap(client.bundleIdentifier) || '';
}`

// MediaRemote drives the private MediaRemote framework through JXA.
type MediaRemote struct {
	log zerolog.Logger
}

func newCapabilities(opts Options) nowplaying.Capabilities {
	log := opts.logger("mediaremote")
	caps := nowplaying.Capabilities{
		Automation: &Osascript{log: opts.logger("osascript")},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := runOsascript(ctx, "JavaScript", probeScript)
	if err != nil || out != "ok" {
		log.Warn().Err(err).Str("probe", out).Msg("MediaRemote unavailable")
		return caps
	}

	mr := &MediaRemote{log: log}
	caps.Info = mr
	caps.Client = mr
	caps.Commands = mr
	caps.Elapsed = mr
	return caps
}

func (m *MediaRemote) NowPlayingInfo(ctx context.Context) (nowplaying.Payload, error) {
	out, err := runOsascript(ctx, "JavaScript", infoScript)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("parse now-playing info: %w", err)
	}
	return translateMediaRemote(raw), nil
}

func (m *MediaRemote) ResolveClient(ctx context.Context, blob []byte) (string, error) {
	out, err := runOsascript(ctx, "JavaScript", clientScript, base64Encode(blob))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errors.New("client has no bundle identifier")
	}
	return out, nil
}

func (m *MediaRemote) SendCommand(ctx context.Context, code nowplaying.CommandCode) error {
	out, err := runOsascript(ctx, "JavaScript", commandScript, strconv.Itoa(int(code)))
	if err != nil {
		return err
	}
	if out != "true" {
		return fmt.Errorf("MediaRemote rejected %s", code)
	}
	return nil
}

func (m *MediaRemote) SetElapsedTime(ctx context.Context, seconds float64) error {
	_, err := runOsascript(ctx, "JavaScript", elapsedScript, strconv.FormatFloat(seconds, 'f', 3, 64))
	return err
}

// runOsascript runs script in the given OSA language and returns its trimmed
// output. Extra args reach the script's run handler.
func runOsascript(ctx context.Context, lang, script string, args ...string) (string, error) {
	cmdArgs := append([]string{"-l", lang, "-e", script}, args...)
	cmd := exec.CommandContext(ctx, "osascript", cmdArgs...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", &osascriptError{msg: msg, err: err}
		}
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

type osascriptError struct {
	msg string
	err error
}

func (e *osascriptError) Error() string { return "osascript: " + e.msg }
func (e *osascriptError) Unwrap() error { return e.err }
