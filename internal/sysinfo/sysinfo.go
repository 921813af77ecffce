// Package sysinfo resolves the local identity used in generated branch names.
package sysinfo

import (
	"os"
	"os/user"
	"runtime"
	"strings"
)

// Unknown is reported for any field that cannot be resolved.
const Unknown = "unknown"

// Info is the local user, machine and operating system.
type Info struct {
	Username    string `json:"username" yaml:"username"`
	MachineName string `json:"machine_name" yaml:"machine_name"`
	OSType      string `json:"os_type" yaml:"os_type"`
}

// Probe resolves Info from injectable sources.
type Probe struct {
	Getenv      func(string) string
	Hostname    func() (string, error)
	CurrentUser func() (*user.User, error)
	GOOS        string
}

// DefaultProbe reads the real process environment.
func DefaultProbe() Probe {
	return Probe{
		Getenv:      os.Getenv,
		Hostname:    os.Hostname,
		CurrentUser: user.Current,
		GOOS:        runtime.GOOS,
	}
}

// Detect resolves Info for the current process. It never fails.
func Detect() Info {
	return DefaultProbe().Detect()
}

// Detect resolves Info, falling back to "unknown" per field.
func (p Probe) Detect() Info {
	return Info{
		Username:    p.username(),
		MachineName: p.machineName(),
		OSType:      osType(p.GOOS),
	}
}

func (p Probe) username() string {
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := p.env(key); v != "" {
			return v
		}
	}
	if p.CurrentUser != nil {
		if u, err := p.CurrentUser(); err == nil && u.Username != "" {
			// Windows reports DOMAIN\user
			if i := strings.LastIndex(u.Username, `\`); i >= 0 {
				return u.Username[i+1:]
			}
			return u.Username
		}
	}
	return Unknown
}

func (p Probe) machineName() string {
	if p.Hostname != nil {
		if h, err := p.Hostname(); err == nil && strings.TrimSpace(h) != "" {
			return strings.TrimSpace(h)
		}
	}
	for _, key := range []string{"COMPUTERNAME", "HOSTNAME"} {
		if v := p.env(key); v != "" {
			return v
		}
	}
	return Unknown
}

func (p Probe) env(key string) string {
	if p.Getenv == nil {
		return ""
	}
	return strings.TrimSpace(p.Getenv(key))
}

func osType(goos string) string {
	switch goos {
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	default:
		return "Unknown"
	}
}
