package process

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Shell is the interpreter used to run every command line
type Shell struct {
	Path string
	Args []string // flags placed before the command line
}

// Command returns the argv that runs line through the shell
func (s Shell) Command(line string) []string {
	argv := make([]string, 0, len(s.Args)+2)
	argv = append(argv, s.Path)
	argv = append(argv, s.Args...)
	return append(argv, line)
}

// String renders the shell for logs
func (s Shell) String() string {
	return strings.Join(append([]string{s.Path}, s.Args...), " ")
}

// posixFallbacks is tried in order when $SHELL is unset or missing
var posixFallbacks = []string{
	"/bin/zsh",
	"/usr/bin/zsh",
	"/bin/bash",
	"/usr/bin/bash",
	"/usr/local/bin/bash",
	"/bin/ksh",
	"/bin/dash",
}

// posixDefault exists on every POSIX system
const posixDefault = "/bin/sh"

// ResolveShell picks the shell once per aish process. preferred (the
// AISH_SHELL / config value) wins; otherwise the platform default is used.
func ResolveShell(preferred string, preferPowerShell bool) Shell {
	return resolveShell(runtime.GOOS, preferred, preferPowerShell, os.Getenv, fileExists)
}

func resolveShell(goos, preferred string, preferPowerShell bool, getenv func(string) string, exists func(string) bool) Shell {
	if preferred != "" {
		return Shell{Path: preferred, Args: flagsFor(preferred)}
	}

	if goos == "windows" {
		if preferPowerShell {
			return Shell{Path: "powershell.exe", Args: []string{"-NoLogo", "-NoProfile", "-Command"}}
		}
		comspec := getenv("ComSpec")
		if comspec == "" {
			comspec = getenv("COMSPEC")
		}
		if comspec == "" {
			comspec = "cmd.exe"
		}
		return Shell{Path: comspec, Args: []string{"/d", "/s", "/c"}}
	}

	if login := getenv("SHELL"); login != "" && exists(login) {
		return Shell{Path: login, Args: []string{"-c"}}
	}
	for _, candidate := range posixFallbacks {
		if exists(candidate) {
			return Shell{Path: candidate, Args: []string{"-c"}}
		}
	}
	return Shell{Path: posixDefault, Args: []string{"-c"}}
}

// flagsFor derives invocation flags from the shell's executable name
func flagsFor(shell string) []string {
	name := strings.ToLower(filepath.Base(strings.ReplaceAll(shell, `\`, "/")))
	name = strings.TrimSuffix(name, ".exe")
	switch name {
	case "powershell", "pwsh":
		return []string{"-NoLogo", "-NoProfile", "-Command"}
	case "cmd":
		return []string{"/d", "/s", "/c"}
	}
	return []string{"-c"}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
