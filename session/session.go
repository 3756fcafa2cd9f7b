// Package session runs the interactive loop: it reads lines, runs them
// through the supervisor, and on failure drives the suggestion exchange
// with the translator.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"aish/dircontext"
	"aish/dirtrack"
	"aish/history"
	"aish/journal"
	"aish/lineedit"
	"aish/process"
	"aish/translate"
	"aish/ui"
	"aish/validation"
)

const recentCommands = 5

// Runner executes command lines. process.Supervisor is the real one.
type Runner interface {
	Run(ctx context.Context, line, dir string) process.Outcome
	// Interrupt forwards an interrupt to the running command and reports
	// whether one was running.
	Interrupt() bool
}

// Recorder stores executed commands. journal.Journal is the real one.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
	Recent(ctx context.Context, dir string, limit int) ([]journal.Entry, error)
}

// Options wires a Session. Translator, Validator and Journal may be nil.
type Options struct {
	Editor     lineedit.Editor
	Runner     Runner
	Tracker    *dirtrack.Tracker
	History    *history.Store
	Translator translate.Translator
	Validator  *validation.Engine
	Journal    Recorder
	Printer    *ui.Printer
	Logger     *zap.Logger

	SessionID      string
	Shell          string
	ContextEntries int
	// User and Host appear in the prompt; empty values are looked up.
	User string
	Host string
}

// Session is the long-lived interactive state
type Session struct {
	editor     lineedit.Editor
	runner     Runner
	tracker    *dirtrack.Tracker
	history    *history.Store
	translator translate.Translator
	validator  *validation.Engine
	journal    Recorder
	printer    *ui.Printer
	logger     *zap.Logger
	machine    Machine

	id             string
	shell          string
	contextEntries int
	user           string
	host           string
}

// execution is one command about to run, with where its text came from
type execution struct {
	line       string
	provenance journal.Provenance
	original   string
}

// New creates a session
func New(opts Options) *Session {
	s := &Session{
		editor:         opts.Editor,
		runner:         opts.Runner,
		tracker:        opts.Tracker,
		history:        opts.History,
		translator:     opts.Translator,
		validator:      opts.Validator,
		journal:        opts.Journal,
		printer:        opts.Printer,
		logger:         opts.Logger,
		id:             opts.SessionID,
		shell:          opts.Shell,
		contextEntries: opts.ContextEntries,
		user:           opts.User,
		host:           opts.Host,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.printer == nil {
		s.printer = ui.NewPrinter(os.Stdout)
	}
	if s.user == "" {
		s.user = currentUser()
	}
	if s.host == "" {
		s.host = shortHostname()
	}
	return s
}

// State exposes the suggestion state
func (s *Session) State() State {
	return s.machine.State()
}

// Prompt renders "[AI] user@host dir % "
func (s *Session) Prompt() string {
	return fmt.Sprintf("[AI] %s@%s %s %% ", s.user, s.host, s.tracker.Base())
}

// Run reads and executes lines until exit, EOF, an interrupt with nothing
// to cancel, or ctx cancellation. History is saved on the way out.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session started", zap.String("session", s.id), zap.String("dir", s.tracker.Dir()))
	defer func() {
		s.SaveHistory()
		s.logger.Info("session ended", zap.String("session", s.id))
	}()

	for {
		line, err := s.editor.Readline(s.Prompt())
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			switch {
			case errors.Is(err, lineedit.ErrInterrupt):
				switch s.HandleInterrupt() {
				case Exited:
					return nil
				case Cancelled:
					s.printer.Infof("Suggestion cancelled.")
				}
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("reading input: %w", err)
			}
		}

		if s.handleLine(ctx, line) {
			return nil
		}
	}
}

// handleLine processes one submitted line and reports whether the session
// should end
func (s *Session) handleLine(ctx context.Context, raw string) bool {
	line := strings.TrimSpace(raw)
	suggestion := s.machine.Consume()

	if line == "" {
		if suggestion != nil {
			s.editor.Clear()
			s.printer.Infof("Suggestion cancelled.")
		}
		return false
	}

	s.history.Append(line)
	s.editor.AddHistory(line)

	if line == "exit" || line == "quit" {
		return true
	}

	if arg, ok := dirtrack.IsChangeDirectory(line); ok {
		if _, err := s.tracker.Change(arg); err != nil {
			s.printer.Errorf("%v", err)
		}
		return false
	}

	run := execution{line: line, provenance: journal.ProvenanceUser}
	if suggestion != nil {
		run.provenance = journal.ProvenanceSuggestion
		run.original = suggestion.OriginalText
	}
	s.execute(ctx, run)
	return false
}

func (s *Session) execute(ctx context.Context, run execution) {
	dir := s.tracker.Dir()
	started := time.Now()
	outcome := s.runner.Run(ctx, run.line, dir)

	s.logger.Info("command finished",
		zap.String("command", run.line),
		zap.String("provenance", string(run.provenance)),
		zap.Int("exit_code", outcome.ExitCode),
		zap.String("signal", outcome.Signal),
		zap.Bool("interrupted", outcome.Interrupted),
		zap.Duration("duration", outcome.Duration))
	s.record(ctx, run, dir, started, outcome)

	switch {
	case outcome.SpawnErr != nil:
		s.printer.Errorf("aish: %v", outcome.SpawnErr)
		return
	case !outcome.Fixable():
		return
	case s.translator == nil:
		return
	}

	if run.provenance == journal.ProvenanceSuggestion {
		s.offerFix(ctx, run, outcome)
		return
	}
	s.suggest(ctx, run.line, nil)
}

// offerFix asks before sending a failed suggestion back to the translator
func (s *Session) offerFix(ctx context.Context, run execution, outcome process.Outcome) {
	s.machine.OfferFix(run.original)
	s.printer.Warnf("The suggested command failed (%s).", outcome.Describe())

	ok, err := lineedit.Confirm(s.editor, "Ask for a corrected command? [y/N] ")
	if err != nil {
		s.logger.Debug("fix prompt closed", zap.Error(err))
	}
	if !ok || s.machine.State() != FixOffered {
		s.machine.Reset()
		return
	}

	s.suggest(ctx, run.original, &translate.Failure{
		Command:  run.line,
		ExitCode: outcome.ExitCode,
		Signal:   outcome.Signal,
		Stderr:   outcome.Stderr,
	})
}

// suggest asks the translator for a command and prefills it
func (s *Session) suggest(ctx context.Context, original string, failure *translate.Failure) {
	tctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.machine.BeginTranslation(original, cancel)

	req := s.buildRequest(tctx, original, failure)
	s.printer.Infof("Asking for a suggestion...")
	s.logger.Debug("translation requested", zap.String("text", original), zap.Bool("fix", failure != nil))

	suggestion, err := s.translator.Translate(tctx, req)
	if err == nil && !usable(suggestion) {
		err = translate.ErrNoSuggestion
	}
	if err != nil {
		if !s.machine.Abandon() {
			s.printer.Infof("Suggestion cancelled.")
			return
		}
		s.logger.Warn("translation failed", zap.String("text", original), zap.Error(err))
		if errors.Is(err, translate.ErrNoSuggestion) {
			s.printer.Warnf("No suggestion available.")
		} else {
			s.printer.Warnf("No suggestion available: %v", err)
		}
		return
	}

	command := strings.TrimSpace(suggestion.Command)
	if !s.machine.Offer(command) {
		s.printer.Infof("Suggestion cancelled.")
		return
	}
	s.logger.Info("suggestion offered", zap.String("text", original), zap.String("command", command))

	s.printer.Explanation(suggestion.Explanation)
	if s.validator != nil {
		for _, f := range s.validator.Check(command).Findings {
			msg := fmt.Sprintf("Warning (%s): %s", f.Risk, f.Message)
			if f.Suggestion != "" {
				msg += "; " + f.Suggestion
			}
			s.printer.Warnf("%s", msg)
		}
	}
	s.printer.Suggestion(command)
	s.printer.Infof("Press Enter to run it, edit it first, or Ctrl+C to cancel.")
	s.editor.SetLine(command)
}

// usable reports whether a translator result can be placed on the prompt:
// one non-blank line
func usable(suggestion *translate.Suggestion) bool {
	if suggestion == nil {
		return false
	}
	command := strings.TrimSpace(suggestion.Command)
	return command != "" && !strings.ContainsAny(command, "\r\n")
}

func (s *Session) buildRequest(ctx context.Context, text string, failure *translate.Failure) translate.Request {
	dir := s.tracker.Dir()
	req := translate.Request{
		Text:    text,
		Failure: failure,
		Shell:   s.shell,
		OS:      runtime.GOOS,
	}

	snapshot, err := dircontext.Capture(dir, s.contextEntries)
	if err != nil {
		s.logger.Debug("directory context unavailable", zap.String("dir", dir), zap.Error(err))
	} else {
		req.Context = snapshot
	}

	if s.journal != nil {
		entries, err := s.journal.Recent(ctx, dir, recentCommands)
		if err != nil {
			s.logger.Debug("journal lookup failed", zap.Error(err))
		}
		// the journal answers newest first
		for i := len(entries) - 1; i >= 0; i-- {
			req.Recent = append(req.Recent, entries[i].Command)
		}
	}
	return req
}

func (s *Session) record(ctx context.Context, run execution, dir string, started time.Time, outcome process.Outcome) {
	if s.journal == nil {
		return
	}
	err := s.journal.Record(ctx, journal.Entry{
		SessionID:   s.id,
		Command:     run.line,
		Dir:         dir,
		Provenance:  run.provenance,
		ExitCode:    outcome.ExitCode,
		Signal:      outcome.Signal,
		Interrupted: outcome.Interrupted,
		Duration:    outcome.Duration,
		StartedAt:   started,
	})
	if err != nil {
		s.logger.Warn("journal write failed", zap.Error(err))
	}
}

// SaveHistory writes the recall buffer. Failures are reported, never fatal.
// It is safe to call more than once.
func (s *Session) SaveHistory() {
	if err := s.history.Save(); err != nil {
		s.logger.Error("saving history", zap.String("path", s.history.Path()), zap.Error(err))
		s.printer.Warnf("Could not save history: %v", err)
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		name := u.Username
		// DOMAIN\name on Windows
		if i := strings.LastIndex(name, `\`); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "user"
}

func shortHostname() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "localhost"
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}
