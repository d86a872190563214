package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/safing/rdapboot/base/log"
	"github.com/safing/rdapboot/base/storage"
	"github.com/safing/rdapboot/service/bootstrap"
)

// app holds the state shared by all commands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     bootstrap.Config

	resolver *bootstrap.Resolver

	out    io.Writer
	errOut io.Writer
}

// newRootCmd returns the command tree. The returned cleanup function releases
// the cache if a command failed.
func newRootCmd(out, errOut io.Writer) (*cobra.Command, func() error) {
	a := &app{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
	}

	rootCmd := &cobra.Command{
		Use:   "rdapboot",
		Short: "Find the RDAP service responsible for an identifier",
		Long: `rdapboot resolves domain names, IP addresses and ranges, AS numbers and
tagged entity handles to the base URL of the responsible RDAP service, using
the IANA bootstrap registries. The registries are cached and revalidated with
their origin when they become stale.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	{
		flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: rdapboot.yaml in the user config directory)")
		flags.String("log-level", "warning", "log level: trace, debug, info, warning, error or critical")
		flags.String("cache-type", "", "cache storage: "+strings.Join(storage.Types(), ", "))
		flags.String("cache-dir", "", "cache location, a directory or a redis URL")
		flags.Duration("max-age", 0, "time a cached registry is considered fresh")
		flags.Duration("timeout", 0, "timeout for fetching a registry")
		_ = rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")

		_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
		_ = a.v.BindPFlag("cache.type", flags.Lookup("cache-type"))
		_ = a.v.BindPFlag("cache.location", flags.Lookup("cache-dir"))
		_ = a.v.BindPFlag("cache.max_age", flags.Lookup("max-age"))
		_ = a.v.BindPFlag("http.timeout", flags.Lookup("timeout"))
	}

	rootCmd.AddCommand(
		a.newResolveCmd(),
		a.newRefreshCmd(),
		a.newShowCmd(),
		a.newWatchCmd(),
		a.newMetricsCmd(),
		newVersionCmd(),
	)
	return rootCmd, a.close
}

// init loads the configuration, starts logging and creates the resolver.
func (a *app) init(cmd *cobra.Command) error {
	switch {
	case cmd.Name() == "version", cmd.Name() == "help":
		return nil
	case cmd.HasParent() && cmd.Parent().Name() == "completion":
		return nil
	}

	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := log.Start(a.v.GetString("log.level"), a.errOut); err != nil {
		return err
	}

	resolver, err := bootstrap.New(a.cfg)
	if err != nil {
		return err
	}
	a.resolver = resolver
	return nil
}

func (a *app) loadConfig() error {
	defaults := bootstrap.DefaultConfig()
	a.v.SetDefault("log.level", "warning")
	a.v.SetDefault("cache.type", defaults.Cache.Type)
	a.v.SetDefault("cache.location", defaults.Cache.Location)
	a.v.SetDefault("cache.max_age", defaults.Cache.MaxAge)
	a.v.SetDefault("http.timeout", defaults.HTTP.Timeout)
	a.v.SetDefault("http.user_agent", defaults.HTTP.UserAgent)
	a.v.SetDefault("refresh.interval", defaults.Refresh.Interval)
	// Registry overrides need a default to be settable via environment.
	for _, kind := range bootstrap.AllKinds() {
		a.v.SetDefault("registries."+kind.StorageKey(), "")
	}

	a.v.SetEnvPrefix("RDAPBOOT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			a.v.AddConfigPath(dir)
		}
		a.v.AddConfigPath(".")
		a.v.SetConfigName("rdapboot")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg bootstrap.Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) close() error {
	if a.resolver == nil {
		return nil
	}
	err := a.resolver.Close()
	a.resolver = nil
	return err
}

func parseKinds(args []string) ([]bootstrap.Kind, error) {
	kinds := make([]bootstrap.Kind, 0, len(args))
	for _, arg := range args {
		kind, err := bootstrap.ParseKind(arg)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		kinds = bootstrap.AllKinds()
	}
	return kinds, nil
}
