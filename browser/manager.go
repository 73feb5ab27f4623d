// Package browser wraps a rod session with keyword-predicate element lookup:
// a Driver facade over pages, frames and windows, Element/Elements wrappers
// with resilient actions, and a debug context finder for failed lookups.
package browser

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/pkg/errors"
	"github.com/sunshower1127/swrod/config"
	"github.com/sunshower1127/swrod/pkg/logger"
)

// Manager owns the browser process lifecycle: launch or attach, hand out a
// Driver, tear down.
type Manager struct {
	cfg *config.Config

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	running  bool
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// Start launches a local chromium (or attaches to control_url) and returns a
// Driver bound to a fresh page.
func (m *Manager) Start(ctx context.Context) (*Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil, errors.New("browser is already running")
	}

	bcfg := m.cfg.Browser
	if bcfg == nil {
		bcfg = &config.BrowserConfig{}
	}

	var browser *rod.Browser
	if bcfg.ControlURL != "" {
		logger.Info(ctx, "Attaching to remote browser: %s", bcfg.ControlURL)
		browser = rod.New().ControlURL(bcfg.ControlURL)
	} else {
		l := launcher.New().
			Headless(bcfg.Headless).
			Devtools(false).
			Leakless(false)

		if bcfg.MuteAudio {
			l = l.Set("mute-audio")
		}
		if bcfg.StartMaximized {
			l = l.Set("start-maximized")
		}
		if bcfg.AllowPopups {
			l = l.Set("disable-popup-blocking")
		}
		if bcfg.DisableInfobars {
			l = l.Set("disable-infobars")
		}
		if bcfg.Proxy != "" {
			l = l.Proxy(bcfg.Proxy)
			logger.Info(ctx, "Using proxy: %s", bcfg.Proxy)
		}

		for _, arg := range bcfg.LaunchArgs {
			arg = strings.TrimPrefix(arg, "--")
			if strings.Contains(arg, "=") {
				parts := strings.SplitN(arg, "=", 2)
				l = l.Set(flags.Flag(parts[0]), parts[1])
			} else {
				l = l.Set(flags.Flag(arg))
			}
		}

		if bcfg.BinPath != "" {
			l = l.Bin(bcfg.BinPath)
			logger.Info(ctx, "Using browser binary: %s", bcfg.BinPath)
		}
		if bcfg.UserDataDir != "" {
			if err := os.MkdirAll(bcfg.UserDataDir, 0o755); err != nil {
				logger.Warn(ctx, "Cannot create user data directory, login state will not be kept: %v", err)
			} else {
				l = l.UserDataDir(bcfg.UserDataDir)
			}
		}

		url, err := l.Launch()
		if err != nil {
			return nil, errors.Wrap(err, "failed to launch browser")
		}
		logger.Info(ctx, "Browser control URL: %s", url)

		browser = rod.New().ControlURL(url)
		m.launcher = l
	}

	if err := browser.Connect(); err != nil {
		return nil, errors.Wrap(err, "failed to connect browser")
	}

	if version, err := browser.Version(); err == nil {
		logger.Info(ctx, "Browser: %s (%s)", version.Product, version.UserAgent)
	}

	page, err := m.newPage(browser, bcfg)
	if err != nil {
		browser.Close()
		return nil, err
	}

	m.browser = browser
	m.running = true

	return newDriver(m, browser, page), nil
}

func (m *Manager) newPage(browser *rod.Browser, bcfg *config.BrowserConfig) (*rod.Page, error) {
	if bcfg.Stealth {
		page, err := stealth.Page(browser)
		return page, errors.Wrap(err, "failed to create stealth page")
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	return page, errors.Wrap(err, "failed to create page")
}

// NewPage opens another page (window) on the running browser.
func (m *Manager) NewPage() (*rod.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil, errors.New("browser is not running")
	}
	bcfg := m.cfg.Browser
	if bcfg == nil {
		bcfg = &config.BrowserConfig{}
	}
	return m.newPage(m.browser, bcfg)
}

// Stop closes the browser and kills the launched process.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	logger.Info(ctx, "Stopping browser")

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn(ctx, "Failed to close browser: %v", err)
		}
		m.browser = nil
	}
	if m.launcher != nil {
		m.launcher.Kill()
		m.launcher = nil
	}
	m.running = false
	return nil
}

// Config exposes the manager's configuration to the driver.
func (m *Manager) Config() *config.Config { return m.cfg }
