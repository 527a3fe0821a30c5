package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"knockknock/internal/apiclient"
)

type options struct {
	routerURL   string
	notifierURL string
	timeout     time.Duration
	jsonOutput  bool

	storeDriver   string
	tableName     string
	redisAddr     string
	redisPassword string
	databaseURL   string
}

func (o *options) client() *apiclient.Client {
	return apiclient.New(o.routerURL, o.notifierURL, o.timeout)
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "knockctl",
		Short:         "Operate the knockknock phrase pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.routerURL, "router-url", envOr("KNOCK_ROUTER_URL", "http://localhost:8080"), "Router base URL")
	flags.StringVar(&opts.notifierURL, "notifier-url", envOr("KNOCK_NOTIFIER_URL", "http://localhost:8081"), "Notifier admin base URL")
	flags.DurationVar(&opts.timeout, "timeout", 90*time.Second, "HTTP timeout")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print raw JSON")
	flags.StringVar(&opts.storeDriver, "store", envOr("STORE_DRIVER", "redis"), "Store driver for list (redis, postgres)")
	flags.StringVar(&opts.tableName, "table", envOr("TABLE_NAME", "knock-knock"), "Table name for list")
	flags.StringVar(&opts.redisAddr, "redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address for list")
	flags.StringVar(&opts.redisPassword, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password for list")
	flags.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN for list")

	rootCmd.AddCommand(newTranslateCommand(opts))
	rootCmd.AddCommand(newAddCommand(opts))
	rootCmd.AddCommand(newSendCommand(opts))
	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newShowCommand(opts))
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
