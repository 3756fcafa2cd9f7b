package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"aish/completion"
	"aish/config"
	"aish/credentials"
	"aish/dirtrack"
	"aish/history"
	"aish/journal"
	"aish/lineedit"
	"aish/logging"
	"aish/process"
	"aish/session"
	"aish/translate"
	"aish/ui"
	"aish/validation"
)

const (
	keyPromptAttempts = 3
	keyPromptTimeout  = 60 * time.Second
)

// runShell wires every component together and runs the interactive session
func runShell(cfg config.Config) error {
	printer := ui.NewPrinter(os.Stdout)

	logger, err := logging.New(cfg.Dir, cfg.LogLevel)
	if err != nil {
		printer.Warnf("Logging disabled: %v", err)
		logger = zap.NewNop()
	}
	defer logger.Sync()

	sessionID := uuid.New().String()
	logger = logger.With(zap.String("session", sessionID))

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	tracker, err := dirtrack.New(cwd)
	if err != nil {
		return err
	}

	hist := history.NewStore(cfg.HistoryFile)
	if err := hist.Load(); err != nil {
		logger.Warn("loading history", zap.String("path", cfg.HistoryFile), zap.Error(err))
		printer.Warnf("Could not load history: %v", err)
	}

	shell := process.ResolveShell(cfg.Shell, cfg.PreferPowerShell)
	supervisor := process.NewSupervisor(shell, process.WithLogger(logger))
	logger.Info("shell resolved", zap.Stringer("shell", shell))

	completer := completion.NewEngine(tracker.Dir, logger)
	if err := completer.Watch(); err != nil {
		logger.Debug("PATH watch unavailable", zap.Error(err))
	}
	defer completer.Close()

	var recorder session.Recorder
	if cfg.Journal {
		j, err := journal.Open(filepath.Join(cfg.Dir, journal.FileName))
		if err != nil {
			logger.Warn("journal unavailable", zap.Error(err))
		} else {
			defer j.Close()
			recorder = j
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	translator := setupTranslator(ctx, cfg, printer, logger)

	editor, err := lineedit.New(lineedit.Options{
		Completer:    completer,
		History:      hist.Entries(),
		HistoryLimit: history.MaxEntries,
	})
	if err != nil {
		return fmt.Errorf("initializing line editor: %w", err)
	}
	defer editor.Close()

	sess := session.New(session.Options{
		Editor:         editor,
		Runner:         supervisor,
		Tracker:        tracker,
		History:        hist,
		Translator:     translator,
		Validator:      validation.NewEngine(),
		Journal:        recorder,
		Printer:        printer,
		Logger:         logger,
		SessionID:      sessionID,
		Shell:          shell.String(),
		ContextEntries: cfg.ContextMaxEntries,
	})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)
	go watchSignals(signals, sess, editor, cancel, logger)

	if translator != nil {
		printer.Infof("aish: suggestions from %s. Type exit to quit.", cfg.Provider)
	} else {
		printer.Infof("aish: suggestions are off. Type exit to quit.")
	}
	return sess.Run(ctx)
}

// signalTarget is the part of the session signals act on
type signalTarget interface {
	HandleInterrupt() session.Action
	SaveHistory()
}

var (
	// how long a signal-triggered shutdown waits for the loop to unwind
	shutdownGrace = 2 * time.Second
	exitProcess   = os.Exit
)

// routeSignal applies sig to the session and reports whether it ends the
// session. SIGINT never does: at the prompt readline reports Ctrl+C itself,
// so a SIGINT arriving here belongs to a command or translation, and the
// command may already have exited by the time it is read.
func routeSignal(sig os.Signal, target signalTarget) bool {
	if sig == os.Interrupt {
		target.HandleInterrupt()
		return false
	}
	return true
}

// watchSignals routes signals until one ends the session. Ending saves
// history, cancels ctx and unblocks the editor; if the loop still has not
// returned after shutdownGrace the process exits.
func watchSignals(signals <-chan os.Signal, target signalTarget, editor io.Closer, cancel context.CancelFunc, logger *zap.Logger) {
	for sig := range signals {
		if !routeSignal(sig, target) {
			continue
		}
		logger.Info("shutting down", zap.String("signal", sig.String()))
		target.SaveHistory()
		cancel()
		editor.Close()
		time.AfterFunc(shutdownGrace, func() {
			exitProcess(1)
		})
		return
	}
}

// setupTranslator builds the translator, asking for an API key when the
// provider needs one and none is configured. It returns nil when
// suggestions are unavailable.
func setupTranslator(ctx context.Context, cfg config.Config, printer *ui.Printer, logger *zap.Logger) translate.Translator {
	if cfg.Provider == config.ProviderNone {
		return nil
	}

	var key string
	if cfg.APIKeyEnv != "" {
		var err error
		key, err = resolveKey(ctx, cfg, printer)
		if err != nil {
			logger.Warn("no API key", zap.String("provider", cfg.Provider), zap.Error(err))
			if errors.Is(err, credentials.ErrAborted) {
				printer.Warnf("No API key; suggestions are off for this session.")
			} else {
				printer.Warnf("Could not read API key: %v", err)
			}
			return nil
		}
	}

	translator, err := translate.New(cfg, key, logger)
	if err != nil {
		logger.Warn("translator unavailable", zap.Error(err))
		printer.Warnf("Suggestions are off: %v", err)
		return nil
	}

	if cfg.Provider == config.ProviderOllama {
		if !translate.NewOllamaClient(cfg.BaseURL, cfg.Model, logger).IsAvailable(ctx) {
			printer.Warnf("Ollama is not reachable; suggestions will fail until it is running.")
		}
	}
	return translator
}

func resolveKey(ctx context.Context, cfg config.Config, printer *ui.Printer) (string, error) {
	resolver := &credentials.Resolver{
		EnvVar:   cfg.APIKeyEnv,
		Store:    credentials.NewStore(cfg.Dir),
		Out:      printer.Writer(),
		Attempts: keyPromptAttempts,
		Timeout:  keyPromptTimeout,
	}

	if term.IsTerminal(os.Stdin.Fd()) {
		// a separate editor so an abandoned read can be unblocked by Close
		prompt, err := lineedit.New(lineedit.Options{})
		if err != nil {
			return "", err
		}
		defer prompt.Close()
		resolver.Read = prompt.ReadSecret
	}
	return resolver.Resolve(ctx)
}
