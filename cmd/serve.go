package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anisan-cli/anistream/api"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/proxy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownGrace = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on")
	lo.Must0(viper.BindPFlag(key.ServerListen, serveCmd.Flags().Lookup("listen")))

	serveCmd.Flags().String("proxy-base", "", "Public base URL of this service")
	lo.Must0(viper.BindPFlag(key.ProxyBaseURL, serveCmd.Flags().Lookup("proxy-base")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and manifest proxy",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newCore()
		handleErr(err)

		fetcher := network.NewFetcher(network.Client, c.settings.MaxRetries, c.settings.BaseDelay)
		server := &api.Server{
			Episodes: c.aggregator,
			Sources:  c.resolver,
			Proxy:    proxy.New(fetcher, c.settings.ProxyBaseURL, c.settings.LargePayloadTimeout),
		}

		srv := &http.Server{
			Addr:              c.settings.Listen,
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("shutdown")
			}
		}()

		log.WithFields(log.Fields{
			"listen":     c.settings.Listen,
			"proxy_base": c.settings.ProxyBaseURL,
			"providers":  c.registry.IDs(),
		}).Info("serving")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr(err)
		}
	},
}
