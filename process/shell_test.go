package process

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveShell(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}
	exists := func(paths ...string) func(string) bool {
		return func(p string) bool {
			for _, q := range paths {
				if p == q {
					return true
				}
			}
			return false
		}
	}

	tests := []struct {
		name      string
		goos      string
		preferred string
		preferPS  bool
		env       map[string]string
		exists    []string
		want      Shell
	}{
		{
			name:      "PreferredWins",
			goos:      "linux",
			preferred: "/opt/fish",
			env:       map[string]string{"SHELL": "/bin/zsh"},
			exists:    []string{"/bin/zsh"},
			want:      Shell{Path: "/opt/fish", Args: []string{"-c"}},
		},
		{
			name:   "LoginShell",
			goos:   "darwin",
			env:    map[string]string{"SHELL": "/bin/zsh"},
			exists: []string{"/bin/zsh"},
			want:   Shell{Path: "/bin/zsh", Args: []string{"-c"}},
		},
		{
			name:   "LoginShellMissingFallsBack",
			goos:   "linux",
			env:    map[string]string{"SHELL": "/usr/local/bin/gone"},
			exists: []string{"/bin/bash"},
			want:   Shell{Path: "/bin/bash", Args: []string{"-c"}},
		},
		{
			name: "FinalFallback",
			goos: "linux",
			want: Shell{Path: "/bin/sh", Args: []string{"-c"}},
		},
		{
			name:     "WindowsPowerShell",
			goos:     "windows",
			preferPS: true,
			env:      map[string]string{"ComSpec": `C:\Windows\system32\cmd.exe`},
			want:     Shell{Path: "powershell.exe", Args: []string{"-NoLogo", "-NoProfile", "-Command"}},
		},
		{
			name: "WindowsComSpec",
			goos: "windows",
			env:  map[string]string{"ComSpec": `C:\Windows\system32\cmd.exe`},
			want: Shell{Path: `C:\Windows\system32\cmd.exe`, Args: []string{"/d", "/s", "/c"}},
		},
		{
			name:      "PreferredPwsh",
			goos:      "windows",
			preferred: `C:\Program Files\PowerShell\7\pwsh.exe`,
			want:      Shell{Path: `C:\Program Files\PowerShell\7\pwsh.exe`, Args: []string{"-NoLogo", "-NoProfile", "-Command"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveShell(tt.goos, tt.preferred, tt.preferPS, env(tt.env), exists(tt.exists...))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resolveShell mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestShellCommand(t *testing.T) {
	sh := Shell{Path: "/bin/sh", Args: []string{"-c"}}
	want := []string{"/bin/sh", "-c", "ls -la | head"}
	if diff := cmp.Diff(want, sh.Command("ls -la | head")); diff != "" {
		t.Errorf("Command mismatch (-want +got):\n%s", diff)
	}
}
