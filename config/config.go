package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sunshower1127/swrod/pkg/logger"
)

type Config struct {
	Debug   bool           `json:"debug" toml:"debug"`
	Browser *BrowserConfig `json:"browser" toml:"browser"`
	Retry   *RetryConfig   `json:"retry" toml:"retry"`
	Journal *JournalConfig `json:"journal,omitempty" toml:"journal,omitempty"`
	Log     *logger.Config `json:"log,omitempty" toml:"log,omitempty"`
}

type BrowserConfig struct {
	BinPath     string `json:"bin_path,omitempty" toml:"bin_path,omitempty"`
	UserDataDir string `json:"user_data_dir,omitempty" toml:"user_data_dir,omitempty"`
	ControlURL  string `json:"control_url,omitempty" toml:"control_url,omitempty"` // attach instead of launch
	Proxy       string `json:"proxy,omitempty" toml:"proxy,omitempty"`

	Headless        bool `json:"headless" toml:"headless"`
	MuteAudio       bool `json:"mute_audio" toml:"mute_audio"`
	StartMaximized  bool `json:"start_maximized" toml:"start_maximized"`
	AllowPopups     bool `json:"allow_popups" toml:"allow_popups"`
	DisableInfobars bool `json:"disable_infobars" toml:"disable_infobars"`
	Stealth         bool `json:"stealth" toml:"stealth"`

	// Extra chromium flags, with or without the leading --.
	LaunchArgs []string `json:"launch_args,omitempty" toml:"launch_args,omitempty"`
}

// RetryConfig is the default lookup budget. Durations are Go duration
// strings ("5s", "500ms").
type RetryConfig struct {
	Timeout string `json:"timeout" toml:"timeout"`
	Poll    string `json:"poll" toml:"poll"`
}

type JournalConfig struct {
	Path string `json:"path,omitempty" toml:"path,omitempty"`
}

// TimeoutDuration parses the timeout, falling back to 5s.
func (r *RetryConfig) TimeoutDuration() time.Duration {
	if r != nil {
		if d, err := time.ParseDuration(r.Timeout); err == nil && d >= 0 {
			return d
		}
	}
	return 5 * time.Second
}

// PollDuration parses the poll interval, falling back to 500ms.
func (r *RetryConfig) PollDuration() time.Duration {
	if r != nil {
		if d, err := time.ParseDuration(r.Poll); err == nil && d > 0 {
			return d
		}
	}
	return 500 * time.Millisecond
}

// Common chromium install locations, probed when no binary is configured.
var chromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/usr/bin/google-chrome-stable",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

func detectChromeBin() string {
	if envPath := os.Getenv("CHROME_BIN_PATH"); envPath != "" {
		return envPath
	}
	for _, p := range chromePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func defaultConfig() *Config {
	return &Config{
		Browser: &BrowserConfig{
			BinPath:        detectChromeBin(),
			MuteAudio:      true,
			StartMaximized: true,
			AllowPopups:    true,
			Stealth:        true,
		},
		Retry: &RetryConfig{
			Timeout: "5s",
			Poll:    "500ms",
		},
		Log: &logger.Config{
			Level: "info",
		},
	}
}

// Load reads a TOML config. A missing file yields the defaults, written back
// to path so there is something to edit next time.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := defaultConfig()
		if os.IsNotExist(err) {
			if cfgData, merr := toml.Marshal(cfg); merr == nil {
				os.WriteFile(path, cfgData, 0o644)
			}
		}
		return cfg, nil
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Browser == nil {
		cfg.Browser = defaultConfig().Browser
	}
	if cfg.Browser.BinPath == "" {
		cfg.Browser.BinPath = detectChromeBin()
	}
	if cfg.Retry == nil {
		cfg.Retry = defaultConfig().Retry
	}
	if cfg.Log == nil {
		cfg.Log = &logger.Config{Level: "info"}
	}

	return &cfg, nil
}
