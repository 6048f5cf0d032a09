package main

import (
	"fmt"

	"github.com/cuemby/strata/pkg/blob"
	"github.com/cuemby/strata/pkg/bucket"
	"github.com/cuemby/strata/pkg/config"
	"github.com/cuemby/strata/pkg/hlc"
	"github.com/cuemby/strata/pkg/metrics"
	"github.com/cuemby/strata/pkg/store"
	"github.com/cuemby/strata/pkg/validate"
)

func loadConfig() (config.Config, error) {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	return config.Load(path)
}

func openAdapter(cfg config.Config) (blob.Adapter, error) {
	switch cfg.BlobBackend {
	case "memory":
		return blob.NewMemoryAdapter(), nil
	case "bolt":
		return blob.NewBoltAdapter(cfg.DataDir + "/strata.db")
	case "fs", "":
		return blob.NewFSAdapter(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown blobBackend %q (want memory, fs, or bolt)", cfg.BlobBackend)
	}
}

// permissiveValidator accepts any map[string]any, for ad hoc CLI-created
// collections that carry no declared schema.
func permissiveValidator() validate.Validator {
	v, err := validate.Compile(validate.Schema{Fields: map[string]validate.FieldSpec{}})
	if err != nil {
		panic(err) // an empty schema always compiles
	}
	return v
}

// openEngine builds a store.Engine for one collection, using this
// process's config-selected blob adapter and a clock wired to emit metrics
// via metrics.ClockOptions(), matching how cmd/warren wires manager/worker
// dependencies from resolved flags before running each subcommand.
func openEngine(collection string) (*store.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	adapter, err := openAdapter(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening blob adapter: %w", err)
	}

	clock := hlc.New(metrics.ClockOptions()...)
	idx := bucket.New()

	engine, err := store.New(collection, adapter, clock, idx, permissiveValidator())
	if err != nil {
		return nil, fmt.Errorf("opening collection %q: %w", collection, err)
	}
	return engine, nil
}
