package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRegisterCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a service with the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := c.Register(cmd.Context()); err != nil {
				return exitWith(1, "register failed: "+err.Error())
			}
			return writeJSON(map[string]any{"registered": opts.name})
		},
	}
	addIdentityFlags(cmd, opts)
	return cmd
}

func newRunCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register, keep heartbeating until interrupted, then unregister",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := c.Register(ctx); err != nil {
				return exitWith(1, "register failed: "+err.Error())
			}

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)

			select {
			case <-signals:
			case <-ctx.Done():
			}

			if err := c.Unregister(ctx); err != nil {
				opts.logger.Warn("unregister on shutdown failed", zap.Error(err))
			}
			return nil
		},
	}
	addIdentityFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.hbSeconds, "heartbeat-interval", opts.hbSeconds, "heartbeat interval in seconds")
	return cmd
}

func newUnregisterCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister NAME",
		Short: "Remove a service's registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := c.Remove(cmd.Context(), args[0]); err != nil {
				return exitWith(1, "unregister failed: "+err.Error())
			}
			return writeJSON(map[string]any{"deleted": args[0]})
		},
	}
}

func newHeartbeatCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat NAME",
		Short: "Send one heartbeat for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := c.Heartbeat(cmd.Context(), args[0]); err != nil {
				return exitWith(1, "heartbeat failed: "+err.Error())
			}
			return writeJSON(map[string]any{"heartbeat": args[0]})
		},
	}
}
