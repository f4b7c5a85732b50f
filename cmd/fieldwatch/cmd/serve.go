package cmd

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/smallbiznis/fieldwatch/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var (
	listenAddr string
	envFile    string
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the public API gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(bootstrap.Gateway())
	},
}

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Run the sensor service and its refresh scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(bootstrap.Sensor())
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh every sensor reading once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFlags(); err != nil {
			return err
		}
		app := fx.New(bootstrap.Refresh(), fx.NopLogger)
		startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Start(startCtx); err != nil {
			return err
		}

		sig := <-app.Wait()

		stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelStop()
		if err := app.Stop(stopCtx); err != nil {
			return err
		}
		if sig.ExitCode != 0 {
			os.Exit(sig.ExitCode)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{gatewayCmd, sensorCmd, refreshCmd} {
		c.Flags().StringVar(&envFile, "env-file", "", "load environment variables from this file before starting")
	}
	gatewayCmd.Flags().StringVar(&listenAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	sensorCmd.Flags().StringVar(&listenAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
}

func serve(opts fx.Option) error {
	if err := applyFlags(); err != nil {
		return err
	}
	app := fx.New(opts)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

// applyFlags exports flag values as environment so config.Load picks them up.
func applyFlags() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err
		}
	}
	if listenAddr != "" {
		return os.Setenv("HTTP_ADDR", listenAddr)
	}
	return nil
}
