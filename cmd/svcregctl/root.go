package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svcreg/internal/client"
	"svcreg/internal/domain"
)

type cliOptions struct {
	registryURL    string
	timeoutSeconds int
	jsonOutput     bool
	verbose        bool

	name           string
	url            string
	healthCheckURL string
	meta           []string
	hbSeconds      int

	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		registryURL:    "http://localhost:3000",
		timeoutSeconds: domain.DefaultClientTimeoutSeconds,
		hbSeconds:      domain.DefaultHeartbeatIntervalSeconds,
		logger:         zap.NewNop(),
	}

	root := &cobra.Command{
		Use:   "svcregctl",
		Short: "CLI client for the service registry",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				opts.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.registryURL, "registry", opts.registryURL, "registry base URL")
	root.PersistentFlags().IntVar(&opts.timeoutSeconds, "timeout", opts.timeoutSeconds, "request timeout in seconds")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "verbose client logging")

	root.AddCommand(
		newRegisterCmd(&opts),
		newRunCmd(&opts),
		newUnregisterCmd(&opts),
		newHeartbeatCmd(&opts),
		newGetCmd(&opts),
		newListCmd(&opts),
		newHealthCmd(&opts),
	)

	return root
}

func newClient(opts *cliOptions) (*client.Client, error) {
	metadata, err := parseMeta(opts.meta)
	if err != nil {
		return nil, err
	}
	return client.New(client.Config{
		RegistryURL:       opts.registryURL,
		ServiceName:       opts.name,
		ServiceURL:        opts.url,
		HealthCheckURL:    opts.healthCheckURL,
		Metadata:          metadata,
		HeartbeatInterval: time.Duration(opts.hbSeconds) * time.Second,
		Timeout:           time.Duration(opts.timeoutSeconds) * time.Second,
		Logger:            opts.logger,
	}), nil
}

func parseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta value %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func addIdentityFlags(cmd *cobra.Command, opts *cliOptions) {
	cmd.Flags().StringVar(&opts.name, "name", "", "service name (required)")
	cmd.Flags().StringVar(&opts.url, "url", "", "service base URL (required)")
	cmd.Flags().StringVar(&opts.healthCheckURL, "health-url", "", "service health check URL")
	cmd.Flags().StringArrayVar(&opts.meta, "meta", nil, "metadata key=value (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")
}
