// Package completion produces tab-completion candidates for the prompt:
// executable names for the first word, filesystem entries after that.
package completion

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// MaxCandidates caps how many completions are returned at once
const MaxCandidates = 50

// Builtins are handled by the session itself and always complete
var Builtins = []string{"cd", "exit", "quit"}

// windowsExecExts is used when PATHEXT is unset
var windowsExecExts = []string{".com", ".exe", ".bat", ".cmd", ".ps1"}

// Engine computes completions against the search path and the session's
// working directory. The executable scan is cached until a PATH directory
// changes.
type Engine struct {
	dir    func() string
	getenv func(string) string
	home   func() (string, error)
	goos   string
	logger *zap.Logger

	mu          sync.Mutex
	executables []string
	cached      bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewEngine creates an engine. dir reports the session's working directory.
func NewEngine(dir func() string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		dir:    dir,
		getenv: os.Getenv,
		home:   os.UserHomeDir,
		goos:   runtime.GOOS,
		logger: logger,
	}
}

// Complete returns candidates for the token under the cursor at the end of
// line. Each candidate replaces that whole token.
func (e *Engine) Complete(line string) []string {
	partial, first := currentToken(line)
	if first {
		return e.completeCommand(partial)
	}
	return e.completePath(partial)
}

// Do implements readline.AutoCompleter
func (e *Engine) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	text := string(line[:pos])
	partial, _ := currentToken(text)

	var out [][]rune
	for _, c := range e.Complete(text) {
		out = append(out, []rune(strings.TrimPrefix(c, partial)))
	}
	return out, len([]rune(partial))
}

// currentToken splits off the trailing partial token and reports whether it
// is the first word of the line
func currentToken(line string) (string, bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	if trimmed == "" {
		return "", true
	}
	if last := line[len(line)-1]; last == ' ' || last == '\t' {
		return "", false
	}
	fields := strings.Fields(trimmed)
	return fields[len(fields)-1], len(fields) == 1
}

func (e *Engine) completeCommand(partial string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if seen[name] || !strings.HasPrefix(name, partial) {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, b := range Builtins {
		add(b)
	}
	for _, name := range e.Executables() {
		add(name)
	}
	sort.Strings(out)
	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	return out
}

// Executables returns the deduplicated, sorted names of every executable on
// the search path
func (e *Engine) Executables() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cached {
		e.executables = e.scanPath()
		e.cached = true
	}
	return e.executables
}

// Invalidate drops the executable cache
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.cached = false
	e.mu.Unlock()
}

func (e *Engine) pathDirs() []string {
	sep := string(os.PathListSeparator)
	if e.goos == "windows" {
		sep = ";"
	}
	var dirs []string
	for _, d := range strings.Split(e.getenv("PATH"), sep) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func (e *Engine) scanPath() []string {
	exts := e.execExts()
	seen := make(map[string]bool)
	var names []string

	for _, dir := range e.pathDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if seen[name] || entry.IsDir() {
				continue
			}
			if e.goos == "windows" {
				if !hasExt(name, exts) {
					continue
				}
			} else {
				info, err := entry.Info()
				if err != nil {
					continue
				}
				// Follow symlinks, most of /usr/bin on some distros is links.
				if info.Mode()&os.ModeSymlink != 0 {
					if info, err = os.Stat(filepath.Join(dir, name)); err != nil || info.IsDir() {
						continue
					}
				}
				if info.Mode().Perm()&0o111 == 0 {
					continue
				}
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (e *Engine) execExts() []string {
	if e.goos != "windows" {
		return nil
	}
	raw := e.getenv("PATHEXT")
	if raw == "" {
		return windowsExecExts
	}
	var exts []string
	for _, ext := range strings.Split(raw, ";") {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, strings.ToLower(ext))
		}
	}
	return exts
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (e *Engine) completePath(partial string) []string {
	// Accept both separator conventions regardless of platform.
	cut := strings.LastIndexAny(partial, `/\`)
	dirPart, prefix := "", partial
	if cut >= 0 {
		dirPart, prefix = partial[:cut+1], partial[cut+1:]
	}

	lookup := filepath.FromSlash(strings.ReplaceAll(dirPart, `\`, "/"))
	switch {
	case lookup == "":
		lookup = e.dir()
	case strings.HasPrefix(lookup, "~/") || strings.HasPrefix(lookup, `~\`):
		home, err := e.home()
		if err != nil {
			return []string{}
		}
		lookup = filepath.Join(home, lookup[2:])
	case !filepath.IsAbs(lookup) && !strings.HasPrefix(lookup, "/"):
		lookup = filepath.Join(e.dir(), lookup)
	}

	entries, err := os.ReadDir(lookup)
	if err != nil {
		return []string{}
	}

	sep := "/"
	if strings.HasSuffix(dirPart, `\`) || (dirPart == "" && e.goos == "windows") {
		sep = `\`
	}
	showHidden := strings.HasPrefix(prefix, ".") || e.goos == "windows"

	out := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasPrefix(name, ".") && !showHidden {
			continue
		}
		candidate := dirPart + name
		if isDir(lookup, entry) {
			candidate += sep
		}
		out = append(out, candidate)
	}
	sort.Strings(out)
	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	return out
}

func isDir(parent string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(filepath.Join(parent, entry.Name()))
		return err == nil && info.IsDir()
	}
	return false
}

// Watch invalidates the executable cache whenever a PATH directory gains or
// loses an entry. Directories that cannot be watched are skipped.
func (e *Engine) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range e.pathDirs() {
		if err := watcher.Add(dir); err != nil {
			e.logger.Debug("not watching PATH entry", zap.String("dir", dir), zap.Error(err))
		}
	}

	e.watcher = watcher
	e.done = make(chan struct{})
	e.wg.Add(1)
	go e.watchLoop()
	return nil
}

func (e *Engine) watchLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Chmod) {
				e.logger.Debug("PATH changed, dropping executable cache", zap.String("path", event.Name))
				e.Invalidate()
			}
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Debug("PATH watcher error", zap.Error(err))
		}
	}
}

// Close stops the PATH watcher
func (e *Engine) Close() error {
	if e.watcher == nil {
		return nil
	}
	close(e.done)
	err := e.watcher.Close()
	e.wg.Wait()
	e.watcher = nil
	return err
}
