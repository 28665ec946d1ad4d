package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tavernsim/server/internal/config"
	"github.com/tavernsim/server/internal/data"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "tavern",
		Short:         "Tavern customer simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default $TAVERN_CONFIG or config/tavern.toml)")

	var ticks uint64
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), resolveConfigPath(cfgPath), ticks)
		},
	}
	runCmd.Flags().Uint64Var(&ticks, "ticks", 0, "stop after this many ticks (0 = until interrupted)")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load config, data tables and scripts, then exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return check(resolveConfigPath(cfgPath))
		},
	}

	root.AddCommand(runCmd, checkCmd)
	return root
}

func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv("TAVERN_CONFIG"); p != "" {
		return p
	}
	return "config/tavern.toml"
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Tavern Sim  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          酒館模擬 · 客人流程核心          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m酒館:\033[0m %s\n\n", serverName)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Shared loading ─────────────────────────────────────────────────

type tables struct {
	dests     *data.DestinationTable
	templates *data.TemplateTable
}

func loadTables(cfg *config.Config) (*tables, error) {
	dests, err := data.LoadDestinationTable(filepath.Join(cfg.Data.Dir, "destinations.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load destinations: %w", err)
	}
	if err := dests.Require(data.Exit, data.Reception); err != nil {
		return nil, err
	}
	printStat("目的地", dests.Count())

	templates, err := data.LoadTemplateTable(filepath.Join(cfg.Data.Dir, "customer_templates.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load customer templates: %w", err)
	}
	if templates.Count() == 0 {
		return nil, fmt.Errorf("load customer templates: table is empty")
	}
	printStat("客人模板", templates.Count())

	return &tables{dests: dests, templates: templates}, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
