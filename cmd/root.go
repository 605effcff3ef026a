package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thunderdash/internal/api"
	"thunderdash/internal/banner"
	"thunderdash/internal/config"
	"thunderdash/internal/dashboard"
	"thunderdash/internal/logging"
	"thunderdash/internal/tui/app"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "thunderdash",
	Short: "ThunderDash - Load Test Job Dashboard",
	Long: `
ThunderDash drives load test jobs on a remote job master.

It supports two main modes:
1. TUI Mode (Default): create, control and chart jobs interactively
2. CLI Mode (Headless): "run" and "watch" for CI/CD usage`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(runCmd, watchCmd, dummyCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.thunderdash.yaml)")
	flags.StringP(config.KeyMaster, "m", "", "Job master base URL")
	flags.Duration(config.KeyPollInterval, 0, "How often a running job is polled")
	flags.Duration(config.KeyTimeout, 0, "Timeout of a single request to the master")
	flags.String(config.KeyLogFile, "", "Log file used while the TUI is open")
	flags.String(config.KeyLogLevel, "", "Log level (debug, info, warn, error)")

	for _, key := range []string{config.KeyMaster, config.KeyPollInterval, config.KeyTimeout, config.KeyLogFile, config.KeyLogLevel} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	config.Bind(viper.GetViper())
	if err := config.ReadFile(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config and builds the logger, client and panel every command shares.
func setup(mode logging.Mode) (config.Config, zerolog.Logger, io.Closer, *api.Client, *dashboard.Panel, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return cfg, zerolog.Nop(), nil, nil, nil, err
	}

	log, closer, err := logging.Setup(logging.Options{Mode: mode, Level: cfg.LogLevel, Path: cfg.LogFile})
	if err != nil {
		return cfg, zerolog.Nop(), nil, nil, nil, err
	}

	client := api.NewClient(api.ClientConfig{BaseURL: cfg.Master, Timeout: cfg.Timeout}, log)
	panel := dashboard.NewPanel(client,
		dashboard.WithPollInterval(cfg.PollInterval),
		dashboard.WithRequestTimeout(cfg.Timeout),
		dashboard.WithLogger(log),
	)
	return cfg, log, closer, client, panel, nil
}

// --- Runners ---

func runTUI() error {
	cfg, log, closer, client, panel, err := setup(logging.File)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().Str("master", cfg.Master).Msg("starting dashboard")

	m := app.NewModel(client, panel, log)
	m.Timeout = cfg.Timeout
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "error running ThunderDash")
	}
	return nil
}
