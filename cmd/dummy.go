package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thunderdash/internal/config"
	"thunderdash/internal/dummy"
	"thunderdash/internal/logging"
)

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a fake job master for trying out the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		log, closer, err := logging.Setup(logging.Options{Mode: logging.Console, Level: cfg.LogLevel})
		if err != nil {
			return err
		}
		defer closer.Close()

		server := dummy.Start(dummy.ServerConfig{Port: port}, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdown)
	},
}

func init() {
	dummyCmd.Flags().IntP("port", "p", 7000, "Port to run the dummy master on")
}
