// Command pitchflow resolves phrase pitch contours, estimates mora timings
// and plays phrases with a live mora cursor.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ieee0824/pitchflow"
	"github.com/ieee0824/pitchflow/internal/config"
	"github.com/ieee0824/pitchflow/internal/logging"
	"github.com/ieee0824/pitchflow/synth"
)

type app struct {
	configFile string
	envFile    string
	logLevel   string
	fillMorae  bool

	cfg    *config.Config
	logger zerolog.Logger
}

func (a *app) load() error {
	cfg, err := config.Load(a.configFile, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Log, os.Stderr)
	return nil
}

func (a *app) synthesizer() (*synth.Client, error) {
	if _, ok := synth.LookupVoice(a.cfg.Synth.Voice); !ok {
		return nil, fmt.Errorf("unknown voice %q", a.cfg.Synth.Voice)
	}
	return synth.NewClient(&synth.Config{
		BaseURL: a.cfg.Synth.BaseURL,
		Voice:   a.cfg.Synth.Voice,
		Rate:    a.cfg.Synth.Rate,
		APIKey:  a.cfg.Synth.APIKey,
		Timeout: a.cfg.Synth.Timeout,
	}, synth.WithLogger(a.logger)), nil
}

func (a *app) engine(opts ...pitchflow.Option) (*pitchflow.Engine, error) {
	client, err := a.synthesizer()
	if err != nil {
		return nil, err
	}
	base := []pitchflow.Option{
		pitchflow.WithSynthesizer(client),
		pitchflow.WithPollInterval(a.cfg.Cursor.PollInterval),
		pitchflow.WithFillMorae(a.fillMorae),
		pitchflow.WithLogger(a.logger),
	}
	return pitchflow.NewEngine(append(base, opts...)...), nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pitchflow",
		Short:         "Japanese phrase pitch contours with a synchronized mora cursor",
		Version:       pitchflow.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "path to YAML config file")
	flags.StringVar(&a.envFile, "env-file", ".env", "path to .env file (ignored if missing)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.BoolVar(&a.fillMorae, "fill-morae", false, "split readings into morae for words without a mora list")

	root.AddCommand(
		newResolveCmd(a),
		newTimingsCmd(a),
		newPlayCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pitchflow", pitchflow.Version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
