package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"thunderdash/internal/api"
	"thunderdash/internal/cli"
	"thunderdash/internal/logging"
)

var (
	// Job Flags
	url            string
	profile        string
	duration       int
	clientFunction string
	transferLimit  int64
	statsInterval  int
	jobTimeout     int

	jobID     string
	startJob  bool
	outPrefix string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create a job, run it to completion and print its results",
	Example: `  thunderdash run --url http://localhost:8080/ --duration 30
  thunderdash run -u http://target/ -d 60 --profile HAMMER -o report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := api.ParseProfile(profile)
		if err != nil {
			return err
		}
		spec := api.JobSpec{
			URL:            url,
			Profile:        p,
			Duration:       duration,
			ClientFunction: clientFunction,
			TransferLimit:  transferLimit,
			StatsInterval:  statsInterval,
			Timeout:        jobTimeout,
		}

		_, log, closer, client, panel, err := setup(logging.Console)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return cli.Run(ctx, client, panel, spec, cli.Options{Out: os.Stdout, OutPrefix: outPrefix, Log: log})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow an existing job until it completes",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, closer, _, panel, err := setup(logging.Console)
		if err != nil {
			return err
		}
		defer closer.Close()

		if err := panel.LoadJob(api.JobID(jobID)); err != nil {
			return errors.Wrap(err, "failed to load job")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return cli.Watch(ctx, panel, startJob, cli.Options{Out: os.Stdout, OutPrefix: outPrefix, Log: log})
	},
}

func init() {
	runCmd.Flags().StringVarP(&url, "url", "u", "", "Target URL")
	runCmd.Flags().StringVarP(&profile, "profile", "P", "BENCHMARK", "Engine profile (BENCHMARK, HAMMER, DUMMY)")
	runCmd.Flags().IntVarP(&duration, "duration", "d", 60, "Duration in seconds")
	runCmd.Flags().StringVar(&clientFunction, "client-function", "", "Client function run for every iteration")
	runCmd.Flags().Int64Var(&transferLimit, "transfer-limit", 0, "Stop after this many bytes (0 = unlimited)")
	runCmd.Flags().IntVar(&statsInterval, "stats-interval", 1, "Results bucket width in seconds")
	runCmd.Flags().IntVar(&jobTimeout, "job-timeout", 30, "Per-request timeout of the job in seconds")
	runCmd.Flags().StringVarP(&outPrefix, "out", "o", "", "Output filename prefix for auto-reporting")
	_ = runCmd.MarkFlagRequired("url")

	watchCmd.Flags().StringVarP(&jobID, "job", "j", "", "Job id")
	watchCmd.Flags().BoolVar(&startJob, "start", false, "Start the job before watching it")
	watchCmd.Flags().StringVarP(&outPrefix, "out", "o", "", "Output filename prefix for auto-reporting")
	_ = watchCmd.MarkFlagRequired("job")
}
