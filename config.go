package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/justinmdickey/goplaying/internal/nowplaying"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	UI struct {
		Color     string `mapstructure:"color"`
		ColorMode string `mapstructure:"color_mode"`
		MaxWidth  int    `mapstructure:"max_width"`
	} `mapstructure:"ui"`
	Artwork struct {
		Enabled      bool `mapstructure:"enabled"`
		Padding      int  `mapstructure:"padding"`
		WidthPixels  int  `mapstructure:"width_pixels"`
		WidthColumns int  `mapstructure:"width_columns"`
	} `mapstructure:"artwork"`
	Text struct {
		MaxLengthWithArt int `mapstructure:"max_length_with_art"`
		MaxLengthNoArt   int `mapstructure:"max_length_no_art"`
	} `mapstructure:"text"`
	Timing struct {
		UIRefreshMs      int `mapstructure:"ui_refresh_ms"`
		DataFetchMs      int `mapstructure:"data_fetch_ms"`
		FetchTimeoutMs   int `mapstructure:"fetch_timeout_ms"`
		ToggleDebounceMs int `mapstructure:"toggle_debounce_ms"`
	} `mapstructure:"timing"`
	Seek struct {
		StreamingStep float64 `mapstructure:"streaming_step"`
		BrowserStep   float64 `mapstructure:"browser_step"`
		DefaultStep   float64 `mapstructure:"default_step"`
	} `mapstructure:"seek"`
	Automation struct {
		BrowserApp   string `mapstructure:"browser_app"`
		TargetDomain string `mapstructure:"target_domain"`
	} `mapstructure:"automation"`
	Overlay struct {
		ListenAddr string `mapstructure:"listen_addr"`
	} `mapstructure:"overlay"`
	State struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"state"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// SafeConfig wraps Config with thread-safe access
type SafeConfig struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current config (thread-safe read)
func (sc *SafeConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cfg
}

// Set updates the config (thread-safe write)
func (sc *SafeConfig) Set(cfg Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}

var config = &SafeConfig{}

// Config file changed notification
type configReloadMsg struct{}

var configChangeChan = make(chan struct{}, 1)

// Watch for config file changes
func watchConfigCmd() tea.Cmd {
	return func() tea.Msg {
		<-configChangeChan
		return configReloadMsg{}
	}
}

// Values used when a field fails validation. color_mode and padding differ
// from the first-run defaults.
const (
	defaultColor            = "2"
	defaultColorMode        = "auto"
	defaultMaxWidth         = 45
	defaultPadding          = 16
	defaultWidthPixels      = 300
	defaultWidthColumns     = 13
	defaultMaxLengthWithArt = 22
	defaultMaxLengthNoArt   = 36
	defaultUIRefreshMs      = 100
	defaultDataFetchMs      = 1000
	defaultFetchTimeoutMs   = 3000
	defaultToggleDebounceMs = 500
)

func setDefaults() {
	viper.SetDefault("ui.color", defaultColor)
	viper.SetDefault("ui.color_mode", "manual")
	viper.SetDefault("ui.max_width", defaultMaxWidth)
	viper.SetDefault("artwork.enabled", true)
	viper.SetDefault("artwork.padding", 15)
	viper.SetDefault("artwork.width_pixels", defaultWidthPixels)
	viper.SetDefault("artwork.width_columns", defaultWidthColumns)
	viper.SetDefault("text.max_length_with_art", defaultMaxLengthWithArt)
	viper.SetDefault("text.max_length_no_art", defaultMaxLengthNoArt)
	viper.SetDefault("timing.ui_refresh_ms", defaultUIRefreshMs)
	viper.SetDefault("timing.data_fetch_ms", defaultDataFetchMs)
	viper.SetDefault("timing.fetch_timeout_ms", defaultFetchTimeoutMs)
	viper.SetDefault("timing.toggle_debounce_ms", defaultToggleDebounceMs)

	profiles := nowplaying.DefaultProfileOptions()
	viper.SetDefault("seek.streaming_step", profiles.StreamingStep)
	viper.SetDefault("seek.browser_step", profiles.BrowserStep)
	viper.SetDefault("seek.default_step", profiles.DefaultStep)
	viper.SetDefault("automation.browser_app", profiles.BrowserApp)
	viper.SetDefault("automation.target_domain", "youtube.com")

	viper.SetDefault("overlay.listen_addr", "")
	viper.SetDefault("state.path", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
}

// configDir follows XDG: $XDG_CONFIG_HOME/goplaying, else ~/.config/goplaying.
func configDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configHome = filepath.Join(homeDir, ".config")
		}
	}
	if configHome == "" {
		return ""
	}
	return filepath.Join(configHome, "goplaying")
}

func initConfig(flags *pflag.FlagSet) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if dir := configDir(); dir != "" {
		viper.AddConfigPath(dir)
	}

	// Environment variable support with GOPLAYING_ prefix
	viper.SetEnvPrefix("GOPLAYING")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	// Flags take precedence when set explicitly
	_ = viper.BindPFlag("ui.color", flags.Lookup("color"))
	_ = viper.BindPFlag("overlay.listen_addr", flags.Lookup("overlay"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	if noArtworkFlag {
		viper.Set("artwork.enabled", false)
	}

	cfg, errs := loadConfig()
	printConfigWarnings(errs)
	config.Set(cfg)

	// Watch for config file changes and live reload
	viper.OnConfigChange(func(e fsnotify.Event) {
		reloadConfig()
	})
	viper.WatchConfig()
}

var (
	reloadMu    sync.Mutex
	reloadHooks []func(Config)
)

// onConfigReload registers fn to receive the repaired config after every
// live reload. Keys read only at startup (timing.data_fetch_ms,
// timing.fetch_timeout_ms, artwork.width_pixels for decoding, state.path,
// overlay.listen_addr, log.*) still need a restart.
func onConfigReload(fn func(Config)) {
	reloadMu.Lock()
	defer reloadMu.Unlock()
	reloadHooks = append(reloadHooks, fn)
}

func reloadConfig() {
	newCfg, errs := loadConfig()
	printConfigWarnings(errs)
	config.Set(newCfg)

	reloadMu.Lock()
	hooks := append([]func(Config){}, reloadHooks...)
	reloadMu.Unlock()
	for _, fn := range hooks {
		fn(newCfg)
	}

	select {
	case configChangeChan <- struct{}{}:
	default:
	}
}

// loadConfig unmarshals viper into a Config and repairs invalid fields.
func loadConfig() (Config, []error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error parsing config: %v\n", err)
	}
	errs := validateConfig(&cfg)
	applyDefaultsForInvalidFields(&cfg, errs)
	return cfg, errs
}

// configError describes one invalid field.
type configError struct {
	field   string
	message string
}

func (e configError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// isValidColor accepts an ANSI code 0-255 or a #RGB/#RRGGBB hex colour.
func isValidColor(color string) bool {
	if strings.HasPrefix(color, "#") {
		return hexColorPattern.MatchString(color)
	}
	if color == "" || len(color) > 3 {
		return false
	}
	n, err := strconv.Atoi(color)
	if err != nil || strconv.Itoa(n) != color {
		return false
	}
	return n >= 0 && n <= 255
}

// validateConfig returns one configError per invalid field.
func validateConfig(cfg *Config) []error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, configError{field: field, message: fmt.Sprintf(format, args...)})
	}

	if !isValidColor(cfg.UI.Color) {
		add("ui.color", "invalid color format '%s'", cfg.UI.Color)
	}
	if cfg.UI.ColorMode != "manual" && cfg.UI.ColorMode != "auto" {
		add("ui.color_mode", "must be 'manual' or 'auto' (got '%s')", cfg.UI.ColorMode)
	}
	if cfg.UI.MaxWidth < 20 {
		add("ui.max_width", "must be at least 20 (got %d)", cfg.UI.MaxWidth)
	}

	switch {
	case cfg.Artwork.Padding < 0:
		add("artwork.padding", "must not be negative (got %d)", cfg.Artwork.Padding)
	case cfg.UI.MaxWidth >= 20 && cfg.Artwork.Padding >= cfg.UI.MaxWidth:
		add("artwork.padding", "must be less than ui.max_width (got %d)", cfg.Artwork.Padding)
	}
	if cfg.Artwork.WidthPixels <= 0 || cfg.Artwork.WidthPixels > 2000 {
		add("artwork.width_pixels", "must be between 1 and 2000 (got %d)", cfg.Artwork.WidthPixels)
	}
	if cfg.Artwork.WidthColumns <= 0 || cfg.Artwork.WidthColumns > 100 {
		add("artwork.width_columns", "must be between 1 and 100 (got %d)", cfg.Artwork.WidthColumns)
	}

	if cfg.Text.MaxLengthWithArt <= 0 || cfg.Text.MaxLengthWithArt > 200 {
		add("text.max_length_with_art", "must be between 1 and 200 (got %d)", cfg.Text.MaxLengthWithArt)
	}
	if cfg.Text.MaxLengthNoArt <= 0 || cfg.Text.MaxLengthNoArt > 200 {
		add("text.max_length_no_art", "must be between 1 and 200 (got %d)", cfg.Text.MaxLengthNoArt)
	}

	if cfg.Timing.UIRefreshMs < 10 {
		add("timing.ui_refresh_ms", "must be at least 10 (got %d)", cfg.Timing.UIRefreshMs)
	}
	if cfg.Timing.DataFetchMs < 100 || cfg.Timing.DataFetchMs > 60000 {
		add("timing.data_fetch_ms", "must be between 100 and 60000 (got %d)", cfg.Timing.DataFetchMs)
	}
	// Zero means "use the default" for the remaining fields.
	if cfg.Timing.FetchTimeoutMs < 0 {
		add("timing.fetch_timeout_ms", "must not be negative (got %d)", cfg.Timing.FetchTimeoutMs)
	}
	if cfg.Timing.ToggleDebounceMs < 0 {
		add("timing.toggle_debounce_ms", "must not be negative (got %d)", cfg.Timing.ToggleDebounceMs)
	}

	if cfg.Seek.StreamingStep < 0 {
		add("seek.streaming_step", "must not be negative (got %g)", cfg.Seek.StreamingStep)
	}
	if cfg.Seek.BrowserStep < 0 {
		add("seek.browser_step", "must not be negative (got %g)", cfg.Seek.BrowserStep)
	}
	if cfg.Seek.DefaultStep < 0 {
		add("seek.default_step", "must not be negative (got %g)", cfg.Seek.DefaultStep)
	}

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			add("log.level", "unknown level '%s'", cfg.Log.Level)
		}
	}
	return errs
}

// applyDefaultsForInvalidFields resets every field named in errs.
func applyDefaultsForInvalidFields(cfg *Config, errs []error) {
	for _, err := range errs {
		ce, ok := err.(configError)
		if !ok {
			continue
		}
		switch ce.field {
		case "ui.color":
			cfg.UI.Color = defaultColor
		case "ui.color_mode":
			cfg.UI.ColorMode = defaultColorMode
		case "ui.max_width":
			cfg.UI.MaxWidth = defaultMaxWidth
		case "artwork.padding":
			cfg.Artwork.Padding = defaultPadding
		case "artwork.width_pixels":
			cfg.Artwork.WidthPixels = defaultWidthPixels
		case "artwork.width_columns":
			cfg.Artwork.WidthColumns = defaultWidthColumns
		case "text.max_length_with_art":
			cfg.Text.MaxLengthWithArt = defaultMaxLengthWithArt
		case "text.max_length_no_art":
			cfg.Text.MaxLengthNoArt = defaultMaxLengthNoArt
		case "timing.ui_refresh_ms":
			cfg.Timing.UIRefreshMs = defaultUIRefreshMs
		case "timing.data_fetch_ms":
			cfg.Timing.DataFetchMs = defaultDataFetchMs
		case "timing.fetch_timeout_ms":
			cfg.Timing.FetchTimeoutMs = defaultFetchTimeoutMs
		case "timing.toggle_debounce_ms":
			cfg.Timing.ToggleDebounceMs = defaultToggleDebounceMs
		case "seek.streaming_step":
			cfg.Seek.StreamingStep = 0
		case "seek.browser_step":
			cfg.Seek.BrowserStep = 0
		case "seek.default_step":
			cfg.Seek.DefaultStep = 0
		case "log.level":
			cfg.Log.Level = "info"
		}
	}
	// Padding may have become too wide after max_width was reset.
	if cfg.Artwork.Padding >= cfg.UI.MaxWidth {
		cfg.Artwork.Padding = defaultPadding
	}
}

func printConfigWarnings(errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "Warning: invalid configuration, using defaults for:")
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  - %v\n", err)
	}
}

// profileOptions maps the seek and automation sections onto the profile table.
func (c Config) profileOptions() nowplaying.ProfileOptions {
	return nowplaying.ProfileOptions{
		StreamingStep: c.Seek.StreamingStep,
		BrowserStep:   c.Seek.BrowserStep,
		DefaultStep:   c.Seek.DefaultStep,
		BrowserApp:    c.Automation.BrowserApp,
	}
}

func (c Config) fetchTimeout() time.Duration {
	if c.Timing.FetchTimeoutMs <= 0 {
		return time.Duration(defaultFetchTimeoutMs) * time.Millisecond
	}
	return time.Duration(c.Timing.FetchTimeoutMs) * time.Millisecond
}

func (c Config) toggleDebounce() time.Duration {
	return time.Duration(c.Timing.ToggleDebounceMs) * time.Millisecond
}

// statePath is the bbolt preference file, next to the config by default.
func (c Config) statePath() string {
	if c.State.Path != "" {
		return c.State.Path
	}
	dir := configDir()
	if dir == "" {
		return filepath.Join(os.TempDir(), "goplaying.db")
	}
	return filepath.Join(dir, "state.db")
}
