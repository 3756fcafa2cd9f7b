// Package dircontext captures what the translator should know about the
// working directory. Snapshots are built fresh for every request.
package dircontext

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one item of the directory listing
type Entry struct {
	Name  string
	IsDir bool
}

// Environment summarizes project markers found in the directory
type Environment struct {
	Languages       []string
	PackageManagers []string
	VCS             []string
	Containers      []string
}

// Empty reports whether no marker matched
func (e *Environment) Empty() bool {
	return e == nil || len(e.Languages)+len(e.PackageManagers)+len(e.VCS)+len(e.Containers) == 0
}

// Snapshot is a point-in-time view of a directory
type Snapshot struct {
	Dir         string
	Entries     []Entry
	Total       int // entries before truncation
	Environment *Environment
}

type marker struct {
	file  string
	kind  string // language | package | vcs | container
	value string
}

// markers maps indicator files to what they imply about the project
var markers = []marker{
	{"go.mod", "language", "go"},
	{"package.json", "language", "javascript"},
	{"tsconfig.json", "language", "typescript"},
	{"Cargo.toml", "language", "rust"},
	{"pom.xml", "language", "java"},
	{"build.gradle", "language", "java"},
	{"build.gradle.kts", "language", "kotlin"},
	{"requirements.txt", "language", "python"},
	{"pyproject.toml", "language", "python"},
	{"Pipfile", "language", "python"},
	{"composer.json", "language", "php"},
	{"Gemfile", "language", "ruby"},
	{"mix.exs", "language", "elixir"},
	{"CMakeLists.txt", "language", "c/c++"},

	{"package-lock.json", "package", "npm"},
	{"yarn.lock", "package", "yarn"},
	{"pnpm-lock.yaml", "package", "pnpm"},
	{"bun.lockb", "package", "bun"},
	{"go.sum", "package", "go modules"},
	{"Cargo.lock", "package", "cargo"},
	{"poetry.lock", "package", "poetry"},
	{"uv.lock", "package", "uv"},
	{"Pipfile.lock", "package", "pipenv"},
	{"Gemfile.lock", "package", "bundler"},
	{"composer.lock", "package", "composer"},
	{"Makefile", "package", "make"},

	{".git", "vcs", "git"},
	{".hg", "vcs", "mercurial"},
	{".svn", "vcs", "subversion"},

	{"Dockerfile", "container", "docker"},
	{"docker-compose.yml", "container", "docker compose"},
	{"docker-compose.yaml", "container", "docker compose"},
	{"compose.yaml", "container", "docker compose"},
	{"Containerfile", "container", "podman"},
	{"Chart.yaml", "container", "helm"},
	{"kustomization.yaml", "container", "kustomize"},
}

// Capture lists dir (at most maxEntries items, directories first) and
// detects project markers
func Capture(dir string, maxEntries int) (*Snapshot, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{Name: item.Name(), IsDir: item.IsDir()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})

	snap := &Snapshot{Dir: dir, Total: len(entries)}
	if maxEntries > 0 && len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	snap.Entries = entries

	env := detect(dir)
	if !env.Empty() {
		snap.Environment = env
	}
	return snap, nil
}

func detect(dir string) *Environment {
	env := &Environment{}
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err != nil {
			continue
		}
		switch m.kind {
		case "language":
			env.Languages = appendUnique(env.Languages, m.value)
		case "package":
			env.PackageManagers = appendUnique(env.PackageManagers, m.value)
		case "vcs":
			env.VCS = appendUnique(env.VCS, m.value)
		case "container":
			env.Containers = appendUnique(env.Containers, m.value)
		}
	}
	return env
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Summary renders the snapshot as prompt text
func (s *Snapshot) Summary() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Directory: %s\n", s.Dir)

	names := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		if e.IsDir {
			names = append(names, e.Name+"/")
		} else {
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		b.WriteString("Contents: (empty)\n")
	} else {
		fmt.Fprintf(&b, "Contents: %s", strings.Join(names, ", "))
		if s.Total > len(s.Entries) {
			fmt.Fprintf(&b, " (and %d more)", s.Total-len(s.Entries))
		}
		b.WriteByte('\n')
	}

	if env := s.Environment; !env.Empty() {
		writeList(&b, "Languages", env.Languages)
		writeList(&b, "Package managers", env.PackageManagers)
		writeList(&b, "Version control", env.VCS)
		writeList(&b, "Containers", env.Containers)
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(values, ", "))
}
