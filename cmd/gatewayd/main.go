package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gosuda.org/gateway/gateway/admin"
	"gosuda.org/gateway/gateway/config"
	"gosuda.org/gateway/gateway/proxy"
	"gosuda.org/gateway/gateway/route"
)

var rootCmd = &cobra.Command{
	Use:   "gatewayd [config-file]",
	Short: "Domain-based TCP gateway routing by Host header and TLS SNI, without terminating TLS",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGateway,
}

var (
	flagConfig    string
	flagHTTPAddr  string
	flagTLSAddr   string
	flagAdminHTTP string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", config.DefaultPath, "path to the backends config file")
	flags.StringVar(&flagHTTPAddr, "http", ":80", "HTTP listen address (Host header inspection)")
	flags.StringVar(&flagTLSAddr, "tls", ":443", "TLS passthrough listen address (SNI inspection)")
	flags.StringVar(&flagAdminHTTP, "admin-http", "", "admin HTTP API address (empty = disabled)")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute root command")
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	table := route.NewTable(cfg.Backends)

	g := proxy.New(table, flagHTTPAddr, flagTLSAddr)
	if err := g.Start(); err != nil {
		return err
	}

	if flagAdminHTTP != "" {
		go func() {
			log.Info().Msgf("[gateway] admin http: %s", flagAdminHTTP)
			if err := http.ListenAndServe(flagAdminHTTP, admin.NewHandler(table)); err != nil {
				log.Error().Err(err).Msg("[gateway] admin http error")
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	g.Stop()
	return nil
}
