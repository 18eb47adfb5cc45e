package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ieee0824/pitchflow"
	"github.com/ieee0824/pitchflow/internal/logging"
	"github.com/ieee0824/pitchflow/pitch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch words.json",
		Short: "Replay a phrase every time its words file changes",
		Long: `Replay a phrase every time its words file changes.

Each change supersedes the phrase still playing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			var points []pitch.MoraPoint
			eng, err := a.engine(pitchflow.WithListener(printEvents(cmd.OutOrStdout(), &points)))
			if err != nil {
				return err
			}
			defer eng.Close()

			w := &phraseWatcher{
				path:   path,
				logger: logging.Component(a.logger, "watch"),
				play: func(words []pitch.Word) error {
					// Stop first so the old phrase's events never refer to new points.
					eng.Stop()
					points = eng.Analyze(words)
					fmt.Fprintln(cmd.OutOrStdout(), pitch.Contour(points))
					_, err := eng.Play(ctx, words)
					return err
				},
			}
			return w.run(ctx)
		},
	}
}

// phraseWatcher replays a words file whenever it is written.
type phraseWatcher struct {
	path   string
	logger zerolog.Logger
	play   func([]pitch.Word) error
}

func (w *phraseWatcher) reload() {
	words, err := readWords(w.path, nil)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("skipping unreadable words file")
		return
	}
	if err := w.play(words); err != nil {
		w.logger.Error().Err(err).Msg("play phrase")
	}
}

func (w *phraseWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	w.reload()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.logger.Debug().Str("op", ev.Op.String()).Msg("words file changed")
				w.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}
