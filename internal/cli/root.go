// Package cli wires the gamescope-reaper command line: flag parsing, the
// mandatory "--" sub-command separator, config-file defaults and the
// supervision run itself.
package cli

import (
	stdcontext "context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DocMAX/gamescope/internal/api"
	httpapi "github.com/DocMAX/gamescope/internal/api/http"
	"github.com/DocMAX/gamescope/internal/config"
	"github.com/DocMAX/gamescope/internal/reaper"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{
		metricsListen: metricsListenFromEnv(),
		run:           runReaper,
	}

	root := &cobra.Command{
		Use:   "gamescope-reaper [flags] -- command [args...]",
		Short: "Supervise a command and reap its entire process subtree",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, metricsAddr, err := ctx.resolve(cmd, args)
			if err != nil {
				return err
			}
			ctx.exitCode = ctx.run(opts, metricsAddr)
			return nil
		},
	}

	root.Flags().StringVar(&ctx.label, "label", "", "Informational tag for external tooling, no behavioral effect")
	root.Flags().BoolVar(&ctx.newSession, "new-session-id", false, "Detach into a new session before spawning")
	root.Flags().BoolVar(&ctx.respawn, "respawn", false, "Respawn the command when it exits, until shutdown is requested")
	root.Flags().StringVar(&ctx.configFile, "config", "", "Path to a YAML defaults file")
	root.Flags().StringVar(&ctx.metricsListen, "metrics-listen", ctx.metricsListen, "Address for the metrics and status endpoint")

	root.AddCommand(newTreeCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	root, ctx := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(ctx.exitCode)
}

type context struct {
	label         string
	newSession    bool
	respawn       bool
	configFile    string
	metricsListen string

	exitCode int
	run      func(opts reaper.Options, metricsAddr string) int
}

// resolve validates the sub-command boundary and folds config-file defaults
// under explicitly set flags.
func (c *context) resolve(cmd *cobra.Command, args []string) (reaper.Options, string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return reaper.Options{}, "", fmt.Errorf(`no sub-command: expected "--" followed by the command to supervise`)
	}
	if dash > 0 {
		return reaper.Options{}, "", fmt.Errorf(`unexpected argument %q before "--"`, args[0])
	}
	command := args[dash:]
	if len(command) == 0 {
		return reaper.Options{}, "", fmt.Errorf(`no sub-command: expected "--" followed by the command to supervise`)
	}

	if c.configFile != "" {
		cfg, err := config.Load(c.configFile)
		if err != nil {
			return reaper.Options{}, "", err
		}
		flags := cmd.Flags()
		if !flags.Changed("label") && cfg.Label != "" {
			c.label = cfg.Label
		}
		if !flags.Changed("new-session-id") && cfg.NewSession {
			c.newSession = true
		}
		if !flags.Changed("respawn") && cfg.Respawn {
			c.respawn = true
		}
		if !flags.Changed("metrics-listen") && cfg.MetricsListen != "" {
			c.metricsListen = cfg.MetricsListen
		}
	}

	opts := reaper.Options{
		Label:      c.label,
		NewSession: c.newSession,
		Respawn:    c.respawn,
		Command:    append([]string(nil), command...),
	}
	return opts, c.metricsListen, nil
}

func runReaper(opts reaper.Options, metricsAddr string) int {
	log := newLogger(opts.Label)
	r := reaper.New(opts, log)

	if metricsAddr != "" {
		server, err := httpapi.NewServer(httpapi.Config{
			Addr: metricsAddr,
			Status: func() api.StatusReport {
				return api.StatusReport{
					Label:        opts.Label,
					Pid:          os.Getpid(),
					Command:      opts.Command,
					Respawn:      opts.Respawn,
					ShuttingDown: r.Flag().Requested(),
				}
			},
		})
		if err != nil {
			log.WithError(err).Warn("unable to configure metrics endpoint")
		} else {
			srvCtx, cancel := stdcontext.WithCancel(stdcontext.Background())
			defer cancel()
			go func() {
				if err := server.Run(srvCtx); err != nil {
					log.WithError(err).Warn("metrics endpoint terminated")
				}
			}()
		}
	}

	return r.Run()
}

func newLogger(label string) logrus.FieldLogger {
	entry := logrus.NewEntry(logrus.StandardLogger())
	if label != "" {
		entry = entry.WithField("label", label)
	}
	return entry
}

func metricsListenFromEnv() string {
	return os.Getenv("GAMESCOPE_REAPER_METRICS_ADDR")
}
