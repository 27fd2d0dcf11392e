package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/options-screener/src/cmd/screener/run"
	"github.com/jiaming2012/options-screener/src/eventconsumers"
	"github.com/jiaming2012/options-screener/src/eventproducers/screenerapi"
	"github.com/jiaming2012/options-screener/src/eventpubsub"
	"github.com/jiaming2012/options-screener/src/eventservices"
	"github.com/jiaming2012/options-screener/src/logger"
	"github.com/jiaming2012/options-screener/src/utils"
)

const serviceName = "options-screener"

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Screen cash-secured put candidates across a list of symbols",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.InitEnvironmentVariables(envDir()); err != nil {
			return err
		}

		return logger.Setup(logger.OptionsFromEnv())
	},
}

var screenCmd = &cobra.Command{
	Use:   "screen --config config.yaml --symbols AAPL,MSFT",
	Short: "Run one screening pass and print the qualifying puts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := run.LoadConfig(mustGetString(cmd, "config"), overridesFromFlags(cmd))
		if err != nil {
			return err
		}

		orchestrator, err := run.NewOrchestrator(cfg, eventservices.NewProviderCredentialsFromEnv(), nil)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := orchestrator.Screen(ctx, cfg.DefaultRequest())
		if err != nil {
			return err
		}

		fmt.Println(result.String())

		if csvPath := mustGetString(cmd, "csv"); csvPath != "" {
			if err := utils.ExportQuotesToCsv(result, csvPath); err != nil {
				return err
			}

			fmt.Println("CSV file written to: ", csvPath)
		}

		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve --config config.yaml",
	Short: "Start the screening HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := run.LoadConfig(mustGetString(cmd, "config"), overridesFromFlags(cmd))
		if err != nil {
			return err
		}

		otelShutdown, err := utils.SetupOTelSDK(ctx, serviceName)
		if err != nil {
			return fmt.Errorf("failed to setup otel sdk: %w", err)
		}

		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Errorf("failed to shutdown otel sdk: %v", err)
			}
		}()

		bus := eventpubsub.New()
		store := eventconsumers.NewLatestResultStore()
		if err := store.Start(bus); err != nil {
			return err
		}

		creds := eventservices.NewProviderCredentialsFromEnv()
		orchestrator, err := run.NewOrchestrator(cfg, creds, bus)
		if err != nil {
			return err
		}

		opts := screenerapi.Options{
			Screener:       orchestrator,
			Latest:         store,
			Defaults:       cfg.DefaultRequest(),
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}

		news, err := run.NewNewsProvider(cfg, creds)
		if err != nil {
			return err
		}

		if news != nil {
			opts.News = news
		}

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: screenerapi.NewRouter(opts),
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}

		srvErr := make(chan error, 1)
		go func() {
			log.Infof("listening on %s", cfg.Server.Addr)
			srvErr <- srv.ListenAndServe()
		}()

		select {
		case err := <-srvErr:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to listen and serve: %w", err)
			}
		case <-ctx.Done():
			log.Info("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		bus.WaitAsync()
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config --out config.yaml",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := mustGetString(cmd, "out")
		if err := run.WriteDefaultConfig(out); err != nil {
			return err
		}

		fmt.Println("config written to: ", out)
		return nil
	},
}

func envDir() string {
	if dir := os.Getenv("PROJECTS_DIR"); dir != "" {
		return dir
	}

	return "."
}

func mustGetString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		log.Fatalf("error getting %s: %v", name, err)
	}

	return value
}

func overridesFromFlags(cmd *cobra.Command) run.Overrides {
	var overrides run.Overrides

	symbols, err := cmd.Flags().GetStringSlice("symbols")
	if err != nil {
		log.Fatalf("error getting symbols: %v", err)
	}
	overrides.Symbols = symbols

	if cmd.Flags().Changed("primary") {
		primary := mustGetString(cmd, "primary")
		overrides.Primary = &primary
	}

	if cmd.Flags().Changed("secondary") {
		secondary := mustGetString(cmd, "secondary")
		overrides.Secondary = &secondary
	}

	return overrides
}

func init() {
	for _, cmd := range []*cobra.Command{screenCmd, serveCmd} {
		cmd.Flags().String("config", "", "path to the yaml config file (defaults are used when empty)")
		cmd.Flags().StringSlice("symbols", nil, "comma separated symbols overriding the config")
		cmd.Flags().String("primary", "", "primary data provider (polygon, massive, yahoo, tradier, alpaca, public)")
		cmd.Flags().String("secondary", "", "fallback data provider, empty to disable")
	}

	screenCmd.Flags().String("csv", "", "write qualifying quotes to this csv file")
	initConfigCmd.Flags().String("out", "config.yaml", "destination of the config file")

	rootCmd.AddCommand(screenCmd, serveCmd, initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
