package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lattice-labs/xcrawl/internal/config"
	"github.com/lattice-labs/xcrawl/internal/protocol"
	"github.com/lattice-labs/xcrawl/internal/session"
	"github.com/lattice-labs/xcrawl/internal/txnsign"
)

func newProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <handle>",
		Short: "Fetch a single account's profile snapshot and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchProfile(cmd.Context(), args[0])
		},
	}
}

func fetchProfile(ctx context.Context, handle string) error {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	jar, err := session.LoadJar(flagCookiePath)
	if err != nil {
		return err
	}
	if jar == nil {
		return fmt.Errorf("no cookie jar at %s; run the login flow first", flagCookiePath)
	}

	txnGen := txnsign.New(txnsign.DefaultConfig())

	holder := &protocol.CredentialsHolder{}
	holder.Set(jar)
	client := protocol.New(cfg, holder, txnGen, protocol.NewGuestID(), discardLogger())

	snapshot, err := client.Profile(ctx, handle)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}
