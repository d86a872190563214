package main

import (
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/safing/rdapboot/base/api"
	"github.com/safing/rdapboot/base/metrics"
	"github.com/safing/rdapboot/service/bootstrap"
	"github.com/safing/rdapboot/service/mgr"
)

func (a *app) newWatchCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the cached registries current until interrupted",
		Long: `Revalidate all registries now and then in the configured refresh interval,
until interrupted. With --listen, lookups, the registry state and metrics are
served via HTTP:

  GET /v1/resolve/{identifier}[?all]
  GET /v1/registries
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			refresher, err := bootstrap.NewModule(a.resolver, a.cfg.Refresh.Interval)
			if err != nil {
				return err
			}

			var server *api.API
			if listenAddr != "" {
				server, err = api.New(listenAddr)
				if err != nil {
					return err
				}
				a.resolver.RegisterAPI(server)
				metrics.RegisterAPI(server)
			}

			group := mgr.NewGroup(refresher, server)
			return group.Run(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "serve the HTTP API on this address, eg. 127.0.0.1:8080")
	return cmd
}
