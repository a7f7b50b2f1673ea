package main

import (
	"errors"

	"github.com/spf13/cobra"

	"svcreg/internal/domain"
)

func newGetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Look up one registered service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			record, err := c.Discover(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, domain.ErrServiceNotFound) {
					return exitWith(2, "service not registered: "+args[0])
				}
				return exitWith(1, "lookup failed: "+err.Error())
			}
			return printRecord(*record, opts.jsonOutput)
		},
	}
}

func newListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered services",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			records, err := c.ListAll(cmd.Context())
			if err != nil {
				return exitWith(1, "list failed: "+err.Error())
			}
			return printRecords(records, opts.jsonOutput)
		},
	}
}

func newHealthCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the registry's health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			health, err := c.Health(cmd.Context())
			if err != nil {
				return exitWith(1, "health check failed: "+err.Error())
			}
			return printHealth(health, opts.jsonOutput)
		},
	}
}
