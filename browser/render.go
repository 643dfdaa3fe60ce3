package browser

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// DefaultTimeout bounds a rendered fetch when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options controls a rendered fetch.
type Options struct {
	// Stealth opens pages through go-rod/stealth.
	Stealth bool

	// IgnoreCertErrors accepts invalid TLS certificates.
	IgnoreCertErrors bool

	// Timeout bounds navigation, load and evaluation together.
	Timeout time.Duration

	// UserDataDir is the browser profile directory. Empty means a
	// temporary profile removed on Close.
	UserDataDir string
}

// PageInfo is the outcome of a rendered fetch.
type PageInfo struct {
	URL   string
	Title string
	HTML  string
}

// Session owns one launched headless browser.
type Session struct {
	browser *rod.Browser
	opts    Options
	tempDir string
}

// Open launches a headless browser. The caller must Close the session.
func Open(opts Options) (*Session, error) {
	path, found := launcher.LookPath()
	if !found {
		return nil, fmt.Errorf("browser executable path not found")
	}

	s := &Session{opts: opts}
	launch := func(profileDir string) (string, error) {
		l := launcher.New().Bin(path).
			Set("no-sandbox").
			Set("disable-setuid-sandbox").
			Set("no-first-run", "true").
			Set("disable-gpu").
			Set("user-data-dir", profileDir)
		if opts.IgnoreCertErrors {
			l.Set("ignore-certificate-errors")
		}
		return l.Headless(true).Launch()
	}

	profile := opts.UserDataDir
	if profile == "" {
		tmp, err := os.MkdirTemp("", "domino-profile-")
		if err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
		s.tempDir = tmp
		profile = tmp
	}

	controlURL, err := launch(profile)
	if err != nil && isProfileLockError(err) && s.tempDir == "" {
		tmp, mkErr := os.MkdirTemp("", "domino-profile-")
		if mkErr != nil {
			return nil, fmt.Errorf("create fallback profile dir: %w", mkErr)
		}
		s.tempDir = tmp
		controlURL, err = launch(tmp)
	}
	if err != nil {
		s.removeTempDir()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		s.removeTempDir()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	s.browser = browser
	return s, nil
}

// Close shuts the browser down and removes any temporary profile.
func (s *Session) Close() {
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	s.removeTempDir()
}

func (s *Session) removeTempDir() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
		s.tempDir = ""
	}
}

// Render navigates to targetURL, waits for the load event and returns the
// page as the browser left it after running its scripts.
func (s *Session) Render(targetURL string) (*PageInfo, error) {
	if s.browser == nil {
		return nil, fmt.Errorf("render: browser not open")
	}
	timeout := s.opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browser := s.browser.Timeout(timeout)

	var page *rod.Page
	var err error
	if s.opts.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(targetURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", targetURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	obj, err := page.Eval(pageInfoJS)
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	info := pageInfoFromEval(obj.Value)
	return &info, nil
}

// Fetch opens a browser, renders targetURL and closes the browser again.
func Fetch(targetURL string, opts Options) (*PageInfo, error) {
	s, err := Open(opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Render(targetURL)
}

const pageInfoJS = `() => ({
	url: location.href,
	title: document.title,
	html: document.documentElement.outerHTML,
})`

func pageInfoFromEval(v gson.JSON) PageInfo {
	return PageInfo{
		URL:   v.Get("url").Str(),
		Title: v.Get("title").Str(),
		HTML:  v.Get("html").Str(),
	}
}

// Chrome refuses to start when another process holds the profile.
func isProfileLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "ProcessSingleton") || strings.Contains(errStr, "SingletonLock")
}
