package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"concurd/internal/client"
	"concurd/internal/clientstate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		apiBaseURL string
		statePath  string
	)

	cmd := &cobra.Command{
		Use:           "concurctl",
		Short:         "Client for the concur sync service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&apiBaseURL, "api", "http://localhost:8080", "Base URL of the concurd API")
	cmd.PersistentFlags().StringVar(&statePath, "state", "", "Path to the state file (default: user config dir)")

	cmd.AddCommand(newLoginCommand(&apiBaseURL, &statePath))
	cmd.AddCommand(newVaultCommand(&apiBaseURL, &statePath))
	cmd.AddCommand(newPushCommand(&apiBaseURL, &statePath))
	cmd.AddCommand(newPullCommand(&apiBaseURL, &statePath))
	return cmd
}

func resolveStatePath(statePath string) (string, error) {
	if statePath != "" {
		return statePath, nil
	}
	return clientstate.DefaultPath()
}

func loadState(statePath string) (string, *clientstate.State, error) {
	path, err := resolveStatePath(statePath)
	if err != nil {
		return "", nil, err
	}
	state, err := clientstate.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, state, nil
}

func newLoginCommand(apiBaseURL, statePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate through the browser handshake",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, state, err := loadState(*statePath)
			if err != nil {
				return err
			}

			c := client.New(*apiBaseURL)
			clientID, authURL, err := c.RequestSession(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser to sign in:\n\n  %s\n\nWaiting for authentication...\n", authURL)

			var token string
			for {
				token, err = c.PollToken(ctx, clientID)
				if errors.Is(err, client.ErrPollPending) {
					continue
				}
				if err != nil {
					return err
				}
				break
			}

			state.Token = token
			if err := clientstate.Save(path, state); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authenticated. Token saved.")
			return nil
		},
	}
}

func newVaultCommand(apiBaseURL, statePath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Bind this client to a vault, creating it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, state, err := loadState(*statePath)
			if err != nil {
				return err
			}

			c := client.New(*apiBaseURL)
			vault, created, err := c.SaveVault(ctx, name)
			if err != nil {
				return err
			}

			state.VaultID = vault.ID
			state.VaultName = vault.Name
			state.LastSync = 0
			if err := clientstate.Save(path, state); err != nil {
				return err
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created vault %q (id %d).\n", vault.Name, vault.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Bound to existing vault %q (id %d).\n", vault.Name, vault.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Vault name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPushCommand(apiBaseURL, statePath *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload changed files from a directory to the bound vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, state, err := loadState(*statePath)
			if err != nil {
				return err
			}
			if state.VaultID == 0 {
				return errors.New("no vault bound; run concurctl vault --name <name> first")
			}

			c := client.New(*apiBaseURL)
			records, err := c.PushDir(ctx, state.VaultID, dir)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Everything up to date.")
				return nil
			}

			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "pushed %s\n", rec.Path)
				if rec.LastSync > state.LastSync {
					state.LastSync = rec.LastSync
				}
			}
			if err := clientstate.Save(path, state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d file(s).\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to push")
	return cmd
}

func newPullCommand(apiBaseURL, statePath *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download files changed since the last sync into a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, state, err := loadState(*statePath)
			if err != nil {
				return err
			}
			if state.VaultID == 0 {
				return errors.New("no vault bound; run concurctl vault --name <name> first")
			}

			c := client.New(*apiBaseURL)
			records, next, err := c.PullDir(ctx, state.VaultID, state.LastSync, dir)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Everything up to date.")
				return nil
			}

			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "pulled %s\n", rec.Path)
			}

			state.LastSync = next
			if err := clientstate.Save(path, state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d file(s).\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to pull into")
	return cmd
}
