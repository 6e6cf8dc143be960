package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/jasm/config"
)

// globals is shared by every command; it is filled in before RunE runs.
type globals struct {
	configDir string
	verbose   int
	cfg       *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "jasm",
		Short:         "Replay the recorded example class through the bytecode writer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configDir, "config", ".", "directory to start searching for "+config.FileName)
	rootCmd.PersistentFlags().CountVarP(&g.verbose, "verbose", "v", "increase log verbosity (repeatable)")

	rootCmd.AddCommand(newEmitCmd(g))
	rootCmd.AddCommand(newTraceCmd(g))
	rootCmd.AddCommand(newVerifyCmd(g))
	rootCmd.AddCommand(newDumpCmd(g))

	return rootCmd
}

func (g *globals) load() error {
	cfg, err := config.FindAndLoad(g.configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	g.cfg = cfg

	var path *string
	if cfg.Log.File != "" {
		path = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity+g.verbose, path)

	log := commonlog.GetLogger("jasm")
	if cfg.Path != "" {
		log.Info("loaded configuration", "path", cfg.Path)
	} else {
		log.Debug("no configuration file found, using defaults", "dir", cfg.Dir)
	}
	return nil
}
