package commands

import (
	"bufio"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-opsboard/gateway"
)

func (c *CLI) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [api-key]",
		Short: "Save the API key used in client mode",
		Long:  "Saves the key to the key file. Without an argument the key is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return goerrors.Wrap(err, goerrors.CategoryBadInput, "read api key")
				}
				key = line
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return goerrors.New("api key is empty", goerrors.CategoryValidation)
			}

			store := gateway.NewFileKeyStore(c.cfg.KeyFile)
			if err := store.Set(gateway.StorageKey, key); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "save api key")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", store.Path())
			return nil
		},
	}
}

func (c *CLI) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := gateway.NewFileKeyStore(c.cfg.KeyFile)
			if err := store.Delete(gateway.StorageKey); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "remove api key")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
			return nil
		},
	}
}
