package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ieee0824/pitchflow"
	"github.com/ieee0824/pitchflow/accent"
	"github.com/ieee0824/pitchflow/audio"
	"github.com/ieee0824/pitchflow/mora"
	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/playback"
	"github.com/ieee0824/pitchflow/synth"
	"github.com/ieee0824/pitchflow/timing"
)

func newResolveCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "resolve [words.json]",
		Short: "Print the per-mora pitch contour of a phrase",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWords(argPath(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			points := eng.Analyze(words)
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), points)
			}
			return printPoints(cmd.OutOrStdout(), words, points)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text or json)")
	return cmd
}

// printPoints writes the contour, one row per mora and a summary row per
// word.
func printPoints(w io.Writer, words []pitch.Word, points []pitch.MoraPoint) error {
	fmt.Fprintln(w, pitch.Contour(points))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, p := range points {
		var notes string
		switch {
		case p.Uncertain:
			notes = "uncertain"
		case p.Particle:
			notes = "particle"
		case p.DictProper:
			notes = "proper"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, p.Mora, p.Pitch, p.Surface, notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range words {
		wd := &words[i]
		reading := "-"
		if wd.Reading != "" {
			reading = mora.ToKatakana(wd.Reading)
		}
		var pattern string
		if wd.AccentType != nil && !wd.IsParticle() {
			for _, l := range accent.Pattern(wd.AccentType, wd.Count()) {
				pattern += string(l)
			}
		}
		var source string
		if wd.Source != "" {
			source = wd.Source.Label()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			wd.Surface, reading, wd.Count(),
			accent.Label(wd.AccentType, wd.Count(), wd.PartOfSpeech), pattern, source)
	}
	return tw.Flush()
}

func newTimingsCmd(a *app) *cobra.Command {
	var anchorsPath string
	cmd := &cobra.Command{
		Use:   "timings [words.json]",
		Short: "Estimate the playback interval of every mora",
		Long: `Estimate the playback interval of every mora.

Anchors come from --anchors when given, otherwise from the synthesis service.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWords(argPath(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}

			var anchors []timing.Anchor
			if anchorsPath != "" {
				anchors, err = readAnchors(anchorsPath)
			} else {
				anchors, err = eng.Anchors(cmd.Context(), words)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), eng.Timings(words, anchors))
		},
	}
	cmd.Flags().StringVar(&anchorsPath, "anchors", "", "JSON file of word timing anchors")
	return cmd
}

func newPlayCmd(a *app) *cobra.Command {
	var audioPath, anchorsPath string
	cmd := &cobra.Command{
		Use:   "play [words.json]",
		Short: "Play a phrase and follow the highlighted mora",
		Long: `Play a phrase and follow the highlighted mora.

With --audio a local WAV recording is played instead of calling the synthesis
service; --anchors supplies its word timings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWords(argPath(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			var points []pitch.MoraPoint
			opts := []pitchflow.Option{pitchflow.WithListener(printEvents(cmd.OutOrStdout(), &points))}
			switch {
			case audioPath != "":
				local, err := newClipSynth(audioPath, anchorsPath)
				if err != nil {
					return err
				}
				opts = append(opts, pitchflow.WithSynthesizer(local))
			case anchorsPath != "":
				return errors.New("--anchors requires --audio")
			}
			eng, err := a.engine(opts...)
			if err != nil {
				return err
			}
			defer eng.Close()

			points = eng.Analyze(words)
			fmt.Fprintln(cmd.OutOrStdout(), pitch.Contour(points))

			s, err := eng.Play(ctx, words)
			if err != nil {
				return err
			}
			if state := s.Wait(); state == playback.Error {
				return s.Err()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&audioPath, "audio", "", "WAV file to play instead of synthesizing")
	cmd.Flags().StringVar(&anchorsPath, "anchors", "", "JSON file of word timing anchors for --audio")
	return cmd
}

// clipSynth serves a recording from disk in place of the synthesis service.
type clipSynth struct {
	clip    *audio.Clip
	anchors []timing.Anchor
}

func newClipSynth(audioPath, anchorsPath string) (*clipSynth, error) {
	clip, err := audio.ReadWAVFile(audioPath)
	if err != nil {
		return nil, err
	}
	s := &clipSynth{clip: clip}
	if anchorsPath != "" {
		if s.anchors, err = readAnchors(anchorsPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *clipSynth) SynthesizeWithTimings(ctx context.Context, text string) (*synth.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &synth.Result{
		Audio:      s.clip,
		Anchors:    s.anchors,
		DurationMS: float64(s.clip.Duration().Milliseconds()),
	}, nil
}

// printEvents writes one line per state change and highlighted mora.
func printEvents(w io.Writer, points *[]pitch.MoraPoint) playback.Listener {
	return func(ev playback.Event) {
		switch ev.Kind {
		case playback.EventState:
			fmt.Fprintf(w, "[%s]\n", ev.State)
		case playback.EventHighlight:
			h := ev.Highlight
			if !h.Active || h.Index >= len(*points) {
				return
			}
			p := (*points)[h.Index]
			fmt.Fprintf(w, "%4d  %s  %s\n", h.Index, p.Pitch, p.Mora)
		}
	}
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
