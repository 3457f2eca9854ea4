// Package desktop talks to the OS: opening URLs in the default browser and
// showing notifications. Commands are started and never waited on.
package desktop

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnsupported = errors.New("unsupported platform")

// Desktop opens URLs and shows notifications for the current OS.
type Desktop struct {
	goos    string
	start   func(name string, args ...string) error
	appName string
}

// New returns a Desktop for the running OS.
func New(appName string) *Desktop {
	return &Desktop{goos: runtime.GOOS, start: startDetached, appName: appName}
}

// Open hands url to the platform opener.
func (d *Desktop) Open(url string) error {
	name, args, err := OpenCommand(d.goos, url)
	if err != nil {
		return err
	}
	return d.start(name, args...)
}

// Notify shows a desktop notification.
func (d *Desktop) Notify(title, body string) error {
	name, args, err := NotifyCommand(d.goos, d.appName, title, body)
	if err != nil {
		return err
	}
	return d.start(name, args...)
}

// OpenCommand returns the command that opens url on goos.
func OpenCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrUnsupported, goos)
}

// NotifyCommand returns the command that shows a notification on goos.
func NotifyCommand(goos, appName, title, body string) (string, []string, error) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(body), appleQuote(title))
		return "osascript", []string{"-e", script}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name", appName, title, body}, nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrUnsupported, goos)
}

func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
