package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [kind...]",
		Short: "Revalidate cached registries with their origin",
		Long: `Revalidate the given registries, or all of them, with their origin,
regardless of their age. Kinds are domain, ipv4, ipv6, asn and entity-tag.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			if err := a.resolver.Refresh(cmd.Context(), kinds...); err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			fmt.Fprintf(a.out, "refreshed %d registries\n", len(kinds))
			return nil
		},
	}
}
