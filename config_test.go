package main

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// TestSafeConfigConcurrency tests that SafeConfig can be safely accessed from multiple goroutines
func TestSafeConfigConcurrency(t *testing.T) {
	sc := &SafeConfig{}

	// Initial config
	initialCfg := Config{}
	initialCfg.UI.Color = "1"
	initialCfg.UI.MaxWidth = 45
	initialCfg.Artwork.Enabled = true
	sc.Set(initialCfg)

	var wg sync.WaitGroup

	// Start 10 writers
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg := Config{}
				cfg.UI.Color = string(rune('0' + (id % 10)))
				cfg.UI.MaxWidth = 40 + id
				cfg.Artwork.Enabled = (j % 2) == 0
				sc.Set(cfg)
			}
		}(i)
	}

	// Start 10 readers
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg := sc.Get()
				// Just access the fields to ensure no panic
				_ = cfg.UI.Color
				_ = cfg.UI.MaxWidth
				_ = cfg.Artwork.Enabled
			}
		}()
	}

	wg.Wait()

	// If we got here without panic or data race, test passes
}

// TestSafeConfigGetReturnsCopy tests that Get() returns a copy, not a reference
func TestSafeConfigGetReturnsCopy(t *testing.T) {
	sc := &SafeConfig{}

	cfg1 := Config{}
	cfg1.UI.Color = "1"
	cfg1.UI.MaxWidth = 45
	sc.Set(cfg1)

	// Get a copy
	retrieved1 := sc.Get()

	// Modify the local copy
	retrieved1.UI.Color = "2"
	retrieved1.UI.MaxWidth = 100

	// Get another copy - should have original values
	retrieved2 := sc.Get()

	if retrieved2.UI.Color != "1" {
		t.Errorf("Expected color '1', got '%s'", retrieved2.UI.Color)
	}

	if retrieved2.UI.MaxWidth != 45 {
		t.Errorf("Expected max_width 45, got %d", retrieved2.UI.MaxWidth)
	}
}

// TestIsValidColor tests the color validation function
func TestIsValidColor(t *testing.T) {
	tests := []struct {
		name  string
		color string
		valid bool
	}{
		// ANSI codes
		{"ansi single digit", "1", true},
		{"ansi double digit", "15", true},
		{"ansi triple digit", "255", true},
		{"ansi zero", "0", true},
		{"ansi invalid", "256", false}, // not validated as out of range, just format
		{"ansi with letter", "1a", false},

		// Hex colors
		{"hex 6 digits", "#FF5733", true},
		{"hex lowercase", "#ff5733", true},
		{"hex 3 digits", "#F00", true},
		{"hex mixed case", "#Ff5733", true},
		{"hex no hash", "FF5733", false},
		{"hex invalid char", "#GG5733", false},
		{"hex wrong length", "#FF57", false},

		// Edge cases
		{"empty", "", false},
		{"just hash", "#", false},
		{"spaces", " 1 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isValidColor(tt.color)
			if result != tt.valid {
				t.Errorf("isValidColor(%q) = %v; want %v", tt.color, result, tt.valid)
			}
		})
	}
}

func validTestConfig() Config {
	cfg := Config{}
	cfg.UI.Color = "2"
	cfg.UI.ColorMode = "manual"
	cfg.UI.MaxWidth = 45
	cfg.Artwork.Padding = 15
	cfg.Artwork.WidthPixels = 300
	cfg.Artwork.WidthColumns = 13
	cfg.Text.MaxLengthWithArt = 22
	cfg.Text.MaxLengthNoArt = 36
	cfg.Timing.UIRefreshMs = 100
	cfg.Timing.DataFetchMs = 1000
	return cfg
}

// TestValidateConfig breaks one field at a time and expects exactly that
// field to be reported and repaired.
func TestValidateConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Seek.StreamingStep = 15
		cfg.Automation.BrowserApp = "Arc"
		cfg.Automation.TargetDomain = "music.youtube.com"
		cfg.Overlay.ListenAddr = "localhost:8975"
		cfg.State.Path = "/tmp/state.db"
		cfg.Log.Level = "debug"

		if errs := validateConfig(&cfg); len(errs) > 0 {
			t.Errorf("Expected no errors for valid config, got %d: %v", len(errs), errs)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"max_width too small", func(c *Config) { c.UI.MaxWidth = 10 }, "ui.max_width"},
		{"invalid color_mode", func(c *Config) { c.UI.ColorMode = "invalid" }, "ui.color_mode"},
		{"invalid color", func(c *Config) { c.UI.Color = "invalid" }, "ui.color"},
		{"padding exceeds max_width", func(c *Config) { c.Artwork.Padding = 50 }, "artwork.padding"},
		{"negative padding", func(c *Config) { c.Artwork.Padding = -5 }, "artwork.padding"},
		{"zero width_pixels", func(c *Config) { c.Artwork.WidthPixels = 0 }, "artwork.width_pixels"},
		{"too many columns", func(c *Config) { c.Artwork.WidthColumns = 101 }, "artwork.width_columns"},
		{"text with art too long", func(c *Config) { c.Text.MaxLengthWithArt = 201 }, "text.max_length_with_art"},
		{"text without art empty", func(c *Config) { c.Text.MaxLengthNoArt = 0 }, "text.max_length_no_art"},
		{"ui_refresh_ms too fast", func(c *Config) { c.Timing.UIRefreshMs = 5 }, "timing.ui_refresh_ms"},
		{"data_fetch_ms too slow", func(c *Config) { c.Timing.DataFetchMs = 70000 }, "timing.data_fetch_ms"},
		{"negative fetch timeout", func(c *Config) { c.Timing.FetchTimeoutMs = -1 }, "timing.fetch_timeout_ms"},
		{"negative debounce", func(c *Config) { c.Timing.ToggleDebounceMs = -1 }, "timing.toggle_debounce_ms"},
		{"negative streaming step", func(c *Config) { c.Seek.StreamingStep = -15 }, "seek.streaming_step"},
		{"negative browser step", func(c *Config) { c.Seek.BrowserStep = -5 }, "seek.browser_step"},
		{"negative default step", func(c *Config) { c.Seek.DefaultStep = -10 }, "seek.default_step"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)

			errs := validateConfig(&cfg)
			if len(errs) != 1 {
				t.Fatalf("Expected exactly one error, got %d: %v", len(errs), errs)
			}
			if ce, ok := errs[0].(configError); !ok || ce.field != tt.field {
				t.Errorf("Expected error for %s, got %v", tt.field, errs[0])
			}

			applyDefaultsForInvalidFields(&cfg, errs)
			if again := validateConfig(&cfg); len(again) > 0 {
				t.Errorf("Expected no errors after applying defaults, got %v", again)
			}
		})
	}
}

func TestApplyDefaultsForInvalidFields(t *testing.T) {
	cfg := Config{}
	cfg.UI.Color = "999"
	cfg.UI.ColorMode = "wrong"
	cfg.UI.MaxWidth = 10
	cfg.Artwork.Padding = -5
	cfg.Text.MaxLengthNoArt = 300
	cfg.Timing.UIRefreshMs = 5
	cfg.Timing.FetchTimeoutMs = -1
	cfg.Seek.BrowserStep = -1
	cfg.Automation.TargetDomain = "vimeo.com"

	errs := validateConfig(&cfg)
	if len(errs) < 10 {
		t.Errorf("Expected at least 10 errors, got %d: %v", len(errs), errs)
	}
	applyDefaultsForInvalidFields(&cfg, errs)

	assertEqual(t, cfg.UI.Color, defaultColor, "color")
	assertEqual(t, cfg.UI.ColorMode, "auto", "color_mode")
	assertEqual(t, cfg.UI.MaxWidth, 45, "max_width")
	assertEqual(t, cfg.Artwork.Padding, 16, "padding")
	assertEqual(t, cfg.Artwork.WidthPixels, 300, "width_pixels")
	assertEqual(t, cfg.Text.MaxLengthNoArt, 36, "max_length_no_art")
	assertEqual(t, cfg.Timing.UIRefreshMs, 100, "ui_refresh_ms")
	assertEqual(t, cfg.Timing.FetchTimeoutMs, 3000, "fetch_timeout_ms")
	assertEqual(t, cfg.Automation.TargetDomain, "vimeo.com", "valid fields untouched")

	if again := validateConfig(&cfg); len(again) > 0 {
		t.Errorf("Expected no errors after applying defaults, got %d: %v", len(again), again)
	}
}

func TestPrintConfigWarnings(t *testing.T) {
	printConfigWarnings(nil)
	printConfigWarnings([]error{
		configError{field: "seek.browser_step", message: "must not be negative (got -1)"},
	})
}

func TestConfigDerivedValues(t *testing.T) {
	cfg := validTestConfig()
	cfg.Seek.StreamingStep = 20
	cfg.Automation.BrowserApp = "Arc"

	opts := cfg.profileOptions()
	assertEqual(t, opts.StreamingStep, 20.0, "streaming step")
	assertEqual(t, opts.BrowserApp, "Arc", "browser app")

	assertEqual(t, cfg.fetchTimeout(), 3*time.Second, "zero fetch timeout uses default")
	cfg.Timing.FetchTimeoutMs = 250
	assertEqual(t, cfg.fetchTimeout(), 250*time.Millisecond, "fetch timeout")

	cfg.Timing.ToggleDebounceMs = 500
	assertEqual(t, cfg.toggleDebounce(), 500*time.Millisecond, "toggle debounce")

	cfg.State.Path = "/tmp/custom.db"
	assertEqual(t, cfg.statePath(), "/tmp/custom.db", "explicit state path")
}

func TestStatePathFollowsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := validTestConfig()
	assertEqual(t, cfg.statePath(), filepath.Join(dir, "goplaying", "state.db"), "state path")
}

func TestReloadConfigRunsHooks(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
		reloadMu.Lock()
		reloadHooks = nil
		reloadMu.Unlock()
		select {
		case <-configChangeChan:
		default:
		}
	})
	setDefaults()
	viper.Set("seek.browser_step", 9)
	viper.Set("automation.target_domain", "vimeo.com")

	var got []Config
	onConfigReload(func(c Config) { got = append(got, c) })
	reloadConfig()

	if len(got) != 1 {
		t.Fatalf("Expected one hook call, got %d", len(got))
	}
	assertEqual(t, got[0].Seek.BrowserStep, 9.0, "browser step")
	assertEqual(t, got[0].Automation.TargetDomain, "vimeo.com", "target domain")
	assertEqual(t, config.Get().Automation.TargetDomain, "vimeo.com", "stored config")
	assertEqual(t, got[0].profileOptions().BrowserStep, 9.0, "profile options")
}
