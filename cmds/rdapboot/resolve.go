package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/safing/rdapboot/service/bootstrap"
)

func (a *app) newResolveCmd() *cobra.Command {
	var (
		kindName string
		all      bool
		reverse  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <identifier>",
		Short: "Print the RDAP base URL responsible for an identifier",
		Long: `Print the RDAP base URL responsible for a domain name, an IP address or
range, an AS number or a tagged entity handle. The type of the identifier is
detected automatically, unless --kind is given.

Exits with code 2 if no service is registered for the identifier.`,
		Example: `  rdapboot resolve example.com
  rdapboot resolve 192.0.2.0/24
  rdapboot resolve AS64496
  rdapboot resolve --kind entity-tag XXXX-FRNIC
  rdapboot resolve --reverse 192.0.2.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if reverse {
				name, err := bootstrap.ReverseName(input)
				if err != nil {
					return err
				}
				input = name
				kindName = bootstrap.KindDomain.String()
			}

			id, err := parseIdentifierAs(kindName, input)
			if err != nil {
				return err
			}

			res, err := a.resolver.Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}
			if res.Source == bootstrap.SourceStale {
				fmt.Fprintf(a.errOut, "warning: %s registry is stale: %s\n", res.Kind, res.StaleReason)
			}

			if !all {
				fmt.Fprintln(a.out, res.BaseURL())
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "%s\t%s registry\t%s\n", id, res.Kind, res.Source)
			for i, svc := range res.Candidates {
				fmt.Fprintf(tw, "#%d\t%s\t%s\n", i+1, strings.Join(svc.Keys, ","), strings.Join(svc.URLs, " "))
			}
			return tw.Flush()
		},
	}

	flags := cmd.Flags()
	{
		flags.StringVarP(&kindName, "kind", "k", "", "registry to use instead of detecting it: domain, ipv4, ipv6, asn or entity-tag")
		flags.BoolVarP(&all, "all", "a", false, "print all matching services and their base URLs")
		flags.BoolVarP(&reverse, "reverse", "r", false, "look up the reverse DNS zone of an IP address")
		cmd.MarkFlagsMutuallyExclusive("kind", "reverse")
	}
	return cmd
}

// parseIdentifierAs parses the identifier for the named registry, or detects
// its type if kindName is empty.
func parseIdentifierAs(kindName, input string) (bootstrap.Identifier, error) {
	if kindName == "" {
		return bootstrap.ParseIdentifier(input)
	}
	kind, err := bootstrap.ParseKind(kindName)
	if err != nil {
		return nil, err
	}

	switch kind {
	case bootstrap.KindDomain:
		return bootstrap.NewDomain(input)

	case bootstrap.KindIPv4, bootstrap.KindIPv6:
		id, err := bootstrap.ParseIdentifier(input)
		if err != nil {
			return nil, err
		}
		ipID, ok := id.(*bootstrap.IPIdentifier)
		if !ok || ipID.Kind() != kind {
			return nil, fmt.Errorf("%w: %q is not an %s address", bootstrap.ErrInvalidIdentifier, input, kind)
		}
		return ipID, nil

	case bootstrap.KindASN:
		n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToUpper(input), "AS"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid AS number %q", bootstrap.ErrInvalidIdentifier, input)
		}
		return bootstrap.NewASN(uint32(n)), nil

	case bootstrap.KindEntityTag:
		return bootstrap.NewEntity(input)
	}
	return nil, fmt.Errorf("unsupported registry %s", kind)
}
