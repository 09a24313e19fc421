package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hylla/syssla/internal/adapters/remote"
	"github.com/hylla/syssla/internal/app"
	"github.com/hylla/syssla/internal/config"
	"github.com/hylla/syssla/internal/heatmap"
	"github.com/hylla/syssla/internal/platform"
	"github.com/hylla/syssla/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// rootFlags carries the CLI overrides shared by all commands.
type rootFlags struct {
	configPath string
	serverURL  string
	appName    string
	devMode    bool
}

// newRootCmd builds the syssla command tree.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	flags := rootFlags{
		appName: defaultAppName(),
		devMode: defaultDevMode(),
	}

	root := &cobra.Command{
		Use:           "syssla",
		Short:         "Kanban board, habit tracker, and yearly activity heatmap in the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), flags, stderr)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&flags.serverURL, "server", "", "backend base URL override")
	root.PersistentFlags().StringVar(&flags.appName, "app", flags.appName, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&flags.devMode, "dev", flags.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(newPathsCmd(stdout, &flags))
	root.AddCommand(newHistoryCmd(stdout, &flags))
	root.AddCommand(newVersionCmd(stdout))
	return root
}

// newVersionCmd prints the build version.
func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the syssla version",
		RunE: func(*cobra.Command, []string) error {
			_, _ = fmt.Fprintf(stdout, "syssla %s\n", version)
			return nil
		},
	}
}

// newHistoryCmd dumps one year of day records as JSON for scripting.
func newHistoryCmd(stdout io.Writer, flags *rootFlags) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a year of completion history as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(*flags)
			if err != nil {
				return err
			}
			configPath := resolveConfigPath(flags.configPath, paths.ConfigPath)
			cfg, err := config.Load(configPath, config.Default(paths.LogPath))
			if err != nil {
				return fmt.Errorf("load config %q: %w", configPath, err)
			}
			serverURL := resolveServerURL(flags.serverURL, cfg.Server.BaseURL)

			client, err := remote.New(serverURL, remote.Options{})
			if err != nil {
				return fmt.Errorf("connect backend %q: %w", serverURL, err)
			}
			if year == 0 {
				year = time.Now().Year()
			}
			records, err := client.History(cmd.Context(), year)
			if err != nil {
				return fmt.Errorf("fetch history: %w", err)
			}
			encoded, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return fmt.Errorf("encode history json: %w", err)
			}
			encoded = append(encoded, '\n')
			_, err = stdout.Write(encoded)
			return err
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (defaults to the current year)")
	return cmd
}

// newPathsCmd reports the resolved config and data locations.
func newPathsCmd(stdout io.Writer, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and log paths",
		RunE: func(*cobra.Command, []string) error {
			paths, err := resolvePaths(*flags)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", flags.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", flags.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "log: %s\n", paths.LogPath)
			return nil
		},
	}
}

// runTUI resolves configuration, connects the backend client, and runs the
// board program loop.
func runTUI(_ context.Context, flags rootFlags, stderr io.Writer) error {
	paths, err := resolvePaths(flags)
	if err != nil {
		return err
	}
	configPath := resolveConfigPath(flags.configPath, paths.ConfigPath)

	cfg, err := config.Load(configPath, config.Default(paths.LogPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	serverURL := resolveServerURL(flags.serverURL, cfg.Server.BaseURL)

	logger, err := newRuntimeLogger(stderr, flags.appName, cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	// Keep TUI rendering clean: runtime logs stay in the file sink while
	// the board is active.
	logger.SetConsoleEnabled(false)
	defer func() {
		if closeErr := logger.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", flags.appName, "dev_mode", flags.devMode, "version", version)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "log_path", paths.LogPath)
	logger.Info("configuration loaded", "config_path", configPath, "server", serverURL, "log_level", cfg.Logging.Level)

	client, err := remote.New(serverURL, remote.Options{Logger: logger.Sink()})
	if err != nil {
		logger.Error("backend client setup failed", "server", serverURL, "err", err)
		return fmt.Errorf("connect backend %q: %w", serverURL, err)
	}

	svc := app.NewService(client, nil, logger.Sink())
	m := tui.NewModel(
		svc,
		tui.WithKeys(cfg.Keys),
		tui.WithHeatmapMode(toHeatmapMode(cfg.Heatmap.DefaultMode)),
		tui.WithLogger(logger.Sink()),
	)

	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("tui program loop complete")
	return nil
}

// resolvePaths maps CLI state onto platform path resolution.
func resolvePaths(flags rootFlags) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: flags.appName,
		DevMode: flags.devMode,
	})
}

// resolveConfigPath picks the config file: flag, then environment, then the
// platform default.
func resolveConfigPath(flagPath, defaultPath string) string {
	if p := strings.TrimSpace(flagPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("SYSSLA_CONFIG")); p != "" {
		return p
	}
	return defaultPath
}

// resolveServerURL picks the backend base URL: flag, then environment, then
// the configured value.
func resolveServerURL(flagURL, configured string) string {
	if u := strings.TrimSpace(flagURL); u != "" {
		return u
	}
	if u := strings.TrimSpace(os.Getenv("SYSSLA_SERVER")); u != "" {
		return u
	}
	return configured
}

// defaultAppName resolves the application name used for path resolution.
func defaultAppName() string {
	if name := strings.TrimSpace(os.Getenv("SYSSLA_APP_NAME")); name != "" {
		return name
	}
	return "syssla"
}

// defaultDevMode resolves the dev-mode default from the build version and
// environment.
func defaultDevMode() bool {
	if v, ok := parseBoolEnv("SYSSLA_DEV_MODE"); ok {
		return v
	}
	return version == "dev"
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// toHeatmapMode maps the configured heatmap metric onto the runtime mode.
func toHeatmapMode(mode config.HeatmapMode) heatmap.Mode {
	switch mode {
	case config.HeatmapModeHabitRate:
		return heatmap.ModeHabitRate
	case config.HeatmapModeTasks:
		return heatmap.ModeTaskCount
	default:
		return heatmap.ModeCombined
	}
}

// runtimeLogger fans log events to a styled console sink and a logfmt file
// sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	fileSink       *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
}

// newRuntimeLogger configures runtime log sinks from config state.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}

	logPath := strings.TrimSpace(cfg.File)
	if logPath == "" {
		return logger, nil
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled
	// console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.fileSink = fileLogger
	logger.closeFile = logFile.Close
	return logger, nil
}

// Sink returns the logger components should log through: the file sink when
// one is configured, otherwise a muted logger.
func (l *runtimeLogger) Sink() *charmLog.Logger {
	if l == nil || l.fileSink == nil {
		return charmLog.New(io.Discard)
	}
	return l.fileSink
}

// Close closes the file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}
