package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aish/config"
)

// Flag values shared by every command
var (
	configDirFlag string
	providerFlag  string
	modelFlag     string
	logLevelFlag  string
	shellFlag     string
	noAIFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "aish",
	Short: "A shell that suggests a working command when yours fails",
	Long: `aish runs your commands through your usual shell. When one fails it asks a
language model for a replacement, puts it on the prompt for you to review,
and runs it only when you press Enter.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runShell(cfg)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configDirFlag, "config-dir", "", "configuration directory (default: <user config dir>/aish)")
	flags.StringVar(&providerFlag, "provider", "", "translation provider: openai, ollama, gemini or none")
	flags.StringVar(&modelFlag, "model", "", "model name passed to the provider")
	flags.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&shellFlag, "shell", "", "shell used to run commands")
	flags.BoolVar(&noAIFlag, "no-ai", false, "disable suggestions for this session")
}

// loadConfig resolves the config directory, reads the file and environment,
// and applies flags last
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dir := configDirFlag
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.SetProvider(providerFlag)
	}
	if flags.Changed("model") {
		cfg.Model = modelFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}
	if flags.Changed("shell") {
		cfg.Shell = shellFlag
	}
	if noAIFlag {
		cfg.SetProvider(config.ProviderNone)
	}
	return cfg, cfg.Validate()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aish:", err)
		os.Exit(1)
	}
}
