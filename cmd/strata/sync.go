package main

import (
	"context"
	"fmt"

	"github.com/cuemby/strata/pkg/syncclient"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync COLLECTION REMOTE_URL",
	Short: "Sync a collection against a remote peer",
	Long: `Sync a collection against a remote strata serve peer.

--direction selects pull, push, or both (the default), mirroring
syncclient.Client.Pull/Push/Reconcile.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, remoteURL := args[0], args[1]
		direction, _ := cmd.Flags().GetString("direction")

		engine, err := openEngine(collection)
		if err != nil {
			return err
		}

		client := syncclient.New(remoteURL)
		ctx := context.Background()

		switch direction {
		case "pull":
			err = client.Pull(ctx, engine)
		case "push":
			err = client.Push(ctx, engine)
		case "both", "":
			err = client.Reconcile(ctx, engine)
		default:
			return fmt.Errorf("unknown --direction %q (want pull, push, or both)", direction)
		}
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}

		fmt.Printf("sync complete: %s\n", engine.GetHashes().Root)
		return nil
	},
}

func init() {
	syncCmd.Flags().String("direction", "both", "pull, push, or both")
}
