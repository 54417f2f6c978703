// Command webgraph runs the hierarchical web-crawl aggregator's HTTP
// control plane (spec §4.9, §6.2).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/r8k/webgraph/api"
	"github.com/r8k/webgraph/config"
	"github.com/r8k/webgraph/logging"
	"github.com/r8k/webgraph/publisher"
	"github.com/r8k/webgraph/supervisor"
)

const version = "1.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var bindAddress string
	var bindPort int
	var configPath string

	root := &cobra.Command{
		Use:   "webgraph",
		Short: "Hierarchical web-crawl aggregator control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(bindAddress, bindPort, configPath)
		},
	}
	root.PersistentFlags().StringVarP(&bindAddress, "bind-address", "a", "", "server bind address (overrides config; config default 127.0.0.1)")
	root.PersistentFlags().IntVarP(&bindPort, "bind-port", "p", 0, "server bind port to listen (overrides config; config default 8080)")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to an optional YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the control plane HTTP server (same as the root command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(bindAddress, bindPort, configPath)
		},
	})

	return root
}

func serve(bindAddress string, bindPort int, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("webgraph: load config: %w", err)
	}
	if bindAddress != "" {
		cfg.BindAddress = bindAddress
	}
	if bindPort != 0 {
		cfg.BindPort = bindPort
	}

	log := logging.SetupDefault()

	pub := publisher.New(cfg.Paths.Primary, cfg.Paths.Mirror, log)
	if err := pub.Reset(); err != nil {
		log.Warn().Err(err).Msg("initial publish reset failed")
	}

	stopWatch := make(chan struct{})
	go pub.Watch(stopWatch)
	defer close(stopWatch)

	sup := supervisor.New(pub, log)
	handler := api.NewHandler(sup, pub, cfg, log)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetPrefix("webgraph")

	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	handler.Register(e)

	go func() {
		if err := e.Start(cfg.Addr()); err != nil {
			log.Info().Err(err).Msg("shutting down the webgraph http server")
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	<-interrupt

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	sup.Shutdown(5 * time.Second)
	return nil
}
