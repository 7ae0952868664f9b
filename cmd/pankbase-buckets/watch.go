package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pankbase/bucket-infra/internal/config"
	"github.com/pankbase/bucket-infra/internal/lint"
	"github.com/pankbase/bucket-infra/internal/pankbase"
)

// newWatchCmd creates the "watch" subcommand for re-synthesizing on config changes.
func newWatchCmd(root *rootOptions) *cobra.Command {
	var (
		lintOnly bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when the config file changes",
		Long: `Watch monitors the config file and re-synthesizes on every change.

The watch command:
- Monitors the directory holding the config file
- Runs lint on each change
- Writes the templates if lint passes (unless --lint-only)
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    pankbase-buckets watch
    pankbase-buckets watch -c staging.yaml --lint-only
    pankbase-buckets watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.OutOrStdout(), root, watchOptions{
				lintOnly: lintOnly,
				debounce: debounce,
			})
		},
	}

	cmd.Flags().BoolVar(&lintOnly, "lint-only", false, "Only run lint, skip writing templates")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")

	return cmd
}

type watchOptions struct {
	lintOnly bool
	debounce time.Duration
}

// watchedFile returns the absolute path of the config file to watch.
func watchedFile(root *rootOptions) (string, error) {
	path := root.configPath
	if path == "" {
		path = config.DefaultFile
	}
	return filepath.Abs(path)
}

// isConfigEvent reports whether event changes the watched file. Editors often
// replace files through a rename, so creates and renames count as writes.
func isConfigEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// runWatch monitors the config file and runs lint/synth on changes.
func runWatch(out io.Writer, root *rootOptions, opts watchOptions) error {
	path, err := watchedFile(root)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	fmt.Fprintf(out, "Watching: %s\n", path)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Fprintln(out, "Running initial lint/synth...")
	runLintAndSynth(out, root, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(out, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigEvent(event, path) {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(out, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			runLintAndSynth(out, root, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-sigChan:
			fmt.Fprintln(out, "\nStopping watch...")
			return nil
		}
	}
}

// runLintAndSynth reloads the config, lints, and writes the templates when lint
// passes. It reports whether every step succeeded.
func runLintAndSynth(out io.Writer, root *rootOptions, opts watchOptions) bool {
	cfg, logger, err := root.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return false
	}

	infra, err := pankbase.Build(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
		return false
	}
	asm, err := infra.App.Synthesize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Synth error: %v\n", err)
		return false
	}

	result := lint.Lint(asm, lint.Options{})
	for _, f := range result.Findings {
		fmt.Fprintf(out, "%s/%s: %s: %s [%s]\n", f.Stack, f.Resource, lint.SeverityName(f.Severity), f.Message, f.Rule)
	}
	if !result.Success {
		fmt.Fprintln(out, "Lint failed, skipping synth")
		return false
	}
	fmt.Fprintln(out, "Lint passed")

	if opts.lintOnly {
		return true
	}

	if err := asm.Write(cfg.OutDir, cfg.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "Synth successful, wrote %d stacks to %s\n", len(asm.Templates), cfg.OutDir)
	return true
}
