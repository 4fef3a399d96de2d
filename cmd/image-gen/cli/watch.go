package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	imagegen "github.com/wolfmcnally/image-gen"
)

// watchDebounce drops change events that follow an accepted one too closely.
// Editors commonly emit several write events for a single save.
const watchDebounce = 500 * time.Millisecond

func runWatch(ctx context.Context, params generateParams) error {
	if params.promptFile == "" {
		return imagegen.NewValidationError("--watch requires --prompt-file")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	logger := newLogger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file itself. Editors that save by
	// rename-and-replace would otherwise detach the watch on the first save.
	dir := filepath.Dir(params.promptFile)
	if err := watcher.Add(dir); err != nil {
		return imagegen.NewIOError(dir, err)
	}

	fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", params.promptFile)
	reportWatchError(runGenerate(ctx, params))

	target := filepath.Clean(params.promptFile)
	var lastRun time.Time
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped watching.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastRun) < watchDebounce {
				continue
			}
			lastRun = time.Now()
			fmt.Printf("\n%s changed, regenerating...\n", params.promptFile)
			reportWatchError(runGenerate(ctx, params))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", "error", err)
		}
	}
}

// reportWatchError prints a run failure without stopping the watch loop.
// Cancellation is not reported; the loop's ctx.Done case handles shutdown.
func reportWatchError(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	printError(err)
}
