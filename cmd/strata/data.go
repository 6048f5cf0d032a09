package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var insertCmd = &cobra.Command{
	Use:   "insert COLLECTION ID DATA",
	Short: "Insert a document into a collection",
	Long: `Insert a document into a collection. DATA is a JSON object.

ID may be "-" to have strata generate one with a random UUID, for callers
that don't already have a client-assigned id.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, id, raw := args[0], args[1], args[2]
		if id == "-" {
			id = uuid.New().String()
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("parsing DATA as JSON: %w", err)
		}

		engine, err := openEngine(collection)
		if err != nil {
			return err
		}

		doc, err := engine.Insert(id, data)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}

		return printJSON(doc)
	},
}

var getCmd = &cobra.Command{
	Use:   "get COLLECTION ID",
	Short: "Get a document by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, id := args[0], args[1]

		engine, err := openEngine(collection)
		if err != nil {
			return err
		}

		doc, ok, err := engine.Get(id)
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		if !ok {
			return fmt.Errorf("document %q not found in collection %q", id, collection)
		}

		return printJSON(doc)
	},
}

var allCmd = &cobra.Command{
	Use:   "all COLLECTION",
	Short: "List every document in a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection := args[0]

		engine, err := openEngine(collection)
		if err != nil {
			return err
		}

		docs, err := engine.All(nil)
		if err != nil {
			return fmt.Errorf("all: %w", err)
		}

		return printJSON(docs)
	},
}

var hashesCmd = &cobra.Command{
	Use:   "hashes COLLECTION",
	Short: "Print a collection's root and bucket hashes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection := args[0]

		engine, err := openEngine(collection)
		if err != nil {
			return err
		}

		return printJSON(engine.GetHashes())
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
