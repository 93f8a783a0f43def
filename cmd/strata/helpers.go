package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanreath/strata/internal/compiler"
	"github.com/lanreath/strata/internal/config"
	"github.com/lanreath/strata/pkg/adapters/bolt"
	"github.com/lanreath/strata/pkg/adapters/loamdef"
	"github.com/lanreath/strata/pkg/adapters/memory"
	"github.com/lanreath/strata/pkg/adapters/redis"
	"github.com/lanreath/strata/pkg/adapters/sqlite"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/ports"
)

// chartPath resolves the chart location from the flag, a positional
// argument, or the environment, in that order.
func chartPath(cmd *cobra.Command, args []string) (string, error) {
	path, _ := cmd.Flags().GetString("chart")
	if !cmd.Flags().Changed("chart") && len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		var cfg config.Server
		if err := config.FromEnv(&cfg); err != nil {
			return "", err
		}
		path = cfg.Chart
	}
	if path == "" {
		return "", fmt.Errorf("no chart given: pass --chart, an argument, or set STRATA_CHART")
	}
	return path, nil
}

// loadChart compiles a YAML chart file, or loads a loam document
// directory when the path is a directory.
func loadChart(ctx context.Context, path string) (*domain.ChartDef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", path, err)
	}
	if info.IsDir() {
		src, err := loamdef.Open(path)
		if err != nil {
			return nil, err
		}
		return src.Load(ctx)
	}
	return compiler.CompileFile(path)
}

// newStore builds the snapshot store the config selects, plus the
// distributed locker when one applies. The returned closer is a no-op
// for backends without resources to release.
func newStore(cfg config.Server) (ports.SnapshotStore, ports.DistributedLocker, io.Closer, error) {
	switch cfg.Store {
	case "memory":
		return memory.New(), nil, nopCloser{}, nil
	case "bolt":
		store, err := bolt.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, store, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, store, nil
	case "redis":
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		var locker ports.DistributedLocker
		if cfg.RedisLock {
			locker = redis.NewLocker(store.Client(), "strata:")
		}
		return store, locker, store, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store %q (expected memory, bolt, sqlite, or redis)", cfg.Store)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
