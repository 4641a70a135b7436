package platform

import (
	"os"
	"path/filepath"
)

// Operating systems with known font directories.
const (
	OSWindows = "windows"
	OSLinux   = "linux"
	OSDarwin  = "darwin"
	OSFreeBSD = "freebsd"
	OSOpenBSD = "openbsd"
	OSNetBSD  = "netbsd"
)

// DefaultFontDirs returns the directories fonts are installed into on goos.
// Per-user directories are omitted when the home directory is unknown.
func DefaultFontDirs(goos string) []string {
	home, _ := os.UserHomeDir()
	var dirs []string
	add := func(base string, elem ...string) {
		if base == "" {
			return
		}
		dirs = append(dirs, filepath.Join(append([]string{base}, elem...)...))
	}

	switch goos {
	case OSWindows:
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		add(windir, "Fonts")
		add(os.Getenv("LOCALAPPDATA"), "Microsoft", "Windows", "Fonts")
	case OSDarwin:
		add("/System/Library/Fonts")
		add("/Library/Fonts")
		add(home, "Library", "Fonts")
	case OSLinux, OSFreeBSD, OSOpenBSD, OSNetBSD:
		if goos == OSLinux {
			add("/usr/share/fonts")
		}
		add("/usr/local/share/fonts")
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			add(xdg, "fonts")
		} else {
			add(home, ".local", "share", "fonts")
		}
		add(home, ".fonts")
	}
	return dirs
}
