package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [kind...]",
		Short: "Show the state of the cached registries",
		RunE: func(_ *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "REGISTRY\tSTATE\tAGE\tSERVICES\tPUBLISHED\tETAG\tLOCATION")
			for _, kind := range kinds {
				info := a.resolver.Loader().Info(kind)
				age, published, etag := "-", "-", "-"
				if !info.FetchedAt.IsZero() {
					age = info.Age.Round(time.Second).String()
				}
				if !info.Publication.IsZero() {
					published = info.Publication.Format(time.RFC3339)
				}
				if info.ETag != "" {
					etag = info.ETag
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					info.Kind,
					info.State,
					age,
					info.Services,
					published,
					etag,
					info.URL,
				)
			}
			return tw.Flush()
		},
	}
}
