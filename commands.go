package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"aish/config"
	"aish/history"
	"aish/journal"
)

var journalLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print saved command history, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lines, err := history.ReadFile(cfg.HistoryFile)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, line := range lines {
			fmt.Fprintf(out, "%5d  %s\n", i+1, line)
		}
		return nil
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print recently executed commands with their outcome",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		j, err := journal.Open(filepath.Join(cfg.Dir, journal.FileName))
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.Recent(context.Background(), "", journalLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			status := fmt.Sprintf("exit %d", e.ExitCode)
			switch {
			case e.Interrupted:
				status = "interrupted"
			case e.Signal != "":
				status = e.Signal
			}
			fmt.Fprintf(out, "%s  %-10s  %-11s  %s  (%s)\n",
				e.StartedAt.Format(time.DateTime), e.Provenance, status, e.Command, e.Dir)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n%s", filepath.Join(cfg.Dir, "config.yaml"), data)

		env := config.ListEnv()
		if len(env) > 0 {
			names := make([]string, 0, len(env))
			for name := range env {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(out, "\n# environment overrides")
			for _, name := range names {
				fmt.Fprintf(out, "# %s=%s\n", name, env[name])
			}
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", filepath.Join(cfg.Dir, "config.yaml"))
		return nil
	},
}

func init() {
	journalCmd.Flags().IntVarP(&journalLimit, "number", "n", 20, "number of entries to show")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(historyCmd, journalCmd, configCmd)
}
