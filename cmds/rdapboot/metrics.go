package main

import (
	"github.com/spf13/cobra"

	"github.com/safing/rdapboot/base/log"
	"github.com/safing/rdapboot/base/metrics"
)

func (a *app) newMetricsCmd() *cobra.Command {
	var process bool

	cmd := &cobra.Command{
		Use:   "metrics [kind...]",
		Short: "Load the registries and print the resulting metrics",
		Long: `Load the given registries, or all of them, the same way a lookup does and
print the cache and fetch metrics in the Prometheus text format. Useful to
check the cache from scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			for _, kind := range kinds {
				if _, err := a.resolver.Loader().Load(cmd.Context(), kind, false); err != nil {
					log.Errorf("rdapboot: %s", err)
				}
			}

			metrics.WritePrometheus(a.out, process)
			return nil
		},
	}

	cmd.Flags().BoolVar(&process, "process", false, "include process metrics")
	return cmd
}
