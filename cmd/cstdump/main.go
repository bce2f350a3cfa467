package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/jward/cstdump"
	"github.com/spf13/cobra"
)

var (
	flagDB      string
	flagFormat  string
	flagVerbose bool

	flagLang       string
	flagStartLine  int
	flagEndLine    int
	flagNamedOnly  bool
	flagFilter     string
	flagFilterFile string
	flagRecord     bool
	flagTimeout    time.Duration
)

// Environment defaults, applied when the matching flag is not set.
var envDefaults = map[string]string{
	"lang":   "CSTDUMP_LANG",
	"format": "CSTDUMP_FORMAT",
	"db":     "CSTDUMP_DB",
}

var logger = slog.New(slog.DiscardHandler)

func main() {
	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cstdump <source> <output>",
	Short: "Dump the concrete syntax tree of a source file",
	Long: "Parses a source file with tree-sitter and writes one line per syntax tree node to the output file, " +
		"optionally restricted to a range of 1-based source lines.",
	Args:          cobra.ExactArgs(2),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyEnv(cmd); err != nil {
			return err
		}
		if _, err := cstdump.ParseFormat(flagFormat); err != nil {
			return err
		}
		logger = newLogger(os.Stderr, flagVerbose)
		return nil
	},
	RunE: runDump,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "history database path (default: .cstdump/history.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json|yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug details to stderr")

	rootCmd.Flags().StringVar(&flagLang, "lang", "", "grammar id (default: inferred from the source extension)")
	rootCmd.Flags().IntVar(&flagStartLine, "start-line", -1, "first 1-based line to dump, -1 for the start of the file")
	rootCmd.Flags().IntVar(&flagEndLine, "end-line", -1, "last 1-based line to dump, -1 for the end of the file")
	rootCmd.Flags().BoolVar(&flagNamedOnly, "named-only", false, "omit anonymous tokens")
	rootCmd.Flags().StringVar(&flagFilter, "filter", "", "Risor expression; only nodes where it is truthy are written")
	rootCmd.Flags().StringVar(&flagFilterFile, "filter-file", "", "read the filter from a Risor script")
	rootCmd.Flags().BoolVar(&flagRecord, "record", false, "record the dump in the history database")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "abandon parsing after this long (0 = no limit)")
	rootCmd.MarkFlagsMutuallyExclusive("filter", "filter-file")

	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(historyCmd)
}

// applyEnv fills unset flags from their environment variables.
func applyEnv(cmd *cobra.Command) error {
	for name, env := range envDefaults {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			continue
		}
		if err := cmd.Flags().Set(name, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runDump(cmd *cobra.Command, args []string) error {
	start := time.Now()
	srcPath, dstPath := args[0], args[1]

	format, err := cstdump.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	opts := []cstdump.Option{
		cstdump.WithWindow(cstdump.LineRange(flagStartLine, flagEndLine)),
		cstdump.WithFormat(format),
		cstdump.WithNamedOnly(flagNamedOnly),
		cstdump.WithParseTimeout(flagTimeout),
		cstdump.WithLogger(logger),
	}
	if flagLang != "" {
		opts = append(opts, cstdump.WithLanguage(flagLang))
	}
	if flagFilter != "" {
		opts = append(opts, cstdump.WithFilter(flagFilter))
	}
	if flagFilterFile != "" {
		opts = append(opts, cstdump.WithFilterScript(flagFilterFile))
	}

	if flagRecord || flagDB != "" {
		// The store is opened only once the dump is written.
		dbPath, err := dbPathFor(srcPath)
		if err != nil {
			return err
		}
		opts = append(opts, cstdump.WithStorePath(dbPath))
		logger.Debug("recording dumps", "db", dbPath)
	}

	engine, err := cstdump.New(opts...)
	if err != nil {
		return err
	}

	res, err := engine.DumpFile(cmd.Context(), srcPath, dstPath)
	if err != nil {
		return err
	}

	logger.Info("dumped",
		"source", srcPath,
		"output", dstPath,
		"language", res.Language,
		"emitted", res.Emitted,
		"nodes", res.Nodes,
		"errors", res.Errors,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if res.DumpID != "" {
		logger.Info("recorded", "id", res.DumpID, "unchanged", res.Unchanged)
	}
	return nil
}

// dbPathFor resolves the history database for a source file: the --db
// flag, or the default under the repository that contains the source.
func dbPathFor(srcPath string) (string, error) {
	abs, err := filepath.Abs(srcPath)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", srcPath, err)
	}
	return resolveDBPath(flagDB, findRepoRoot(filepath.Dir(abs))), nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns db made absolute against repoRoot, or the default
// location when db is empty.
func resolveDBPath(db, repoRoot string) string {
	if db != "" {
		if filepath.IsAbs(db) {
			return db
		}
		return filepath.Join(repoRoot, db)
	}
	return filepath.Join(repoRoot, ".cstdump", "history.db")
}
