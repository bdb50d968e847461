package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codebox/internal/approval"
	"codebox/internal/audit"
	"codebox/internal/box"
	"codebox/internal/config"
	"codebox/internal/gate"
	"codebox/internal/logging"
	"codebox/internal/pool"
)

var (
	workDir    string
	debugMode  bool
	poolFlags  []string
	disableGat bool
)

var rootCmd = &cobra.Command{
	Use:   "codebox",
	Short: "codebox - sandboxed execution substrate for coding agents",
	Long: `codebox hosts the tool surface a coding agent executes through:
sandboxed file operations, search, shell execution with a command danger
gate, a multi-file patch engine, and capability discovery over mounted
pools.

Run without arguments to start the interactive console.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.close()
		return runConsole(rt)
	},
}

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "List registered pools and their capability counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.close()

		for _, p := range rt.pools.Pools() {
			mode := "ro"
			if p.Writable {
				mode = "rw"
			}
			fmt.Printf("%s (%s) -> %s\n", p.Alias, mode, p.Root)
		}
		fmt.Printf("%d capabilities discovered\n", rt.pools.Count())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("codebox v0.1.0")
	},
}

// runtime bundles everything the console needs.
type runtime struct {
	cfg        *config.Config
	pools      *pool.Registry
	manager    *box.Manager
	dispatcher *box.Dispatcher
	station    *approval.Station
	trail      *audit.Store
}

func (rt *runtime) close() {
	rt.pools.StopWatching()
	if rt.trail != nil {
		rt.trail.Close()
	}
	logging.CloseAll()
}

func setup() (*runtime, error) {
	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Logging.DebugMode = true
	}
	if disableGat {
		cfg.Gate.Enabled = false
	}

	if err := logging.Initialize(cfg.WorkDir, cfg.Logging.DebugMode, cfg.Logging.Level, cfg.Logging.Categories); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("codebox starting: workdir=%s", cfg.WorkDir)

	pools := pool.NewRegistry()
	for alias, dir := range cfg.Pools {
		writable := false
		for _, w := range cfg.WritablePools {
			if pool.NormalizeAlias(w) == pool.NormalizeAlias(alias) {
				writable = true
			}
		}
		if err := pools.RegisterPool(alias, dir, writable); err != nil {
			return nil, err
		}
	}
	for _, spec := range poolFlags {
		alias, dir, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("bad --pool value %q, want alias=dir", spec)
		}
		if err := pools.RegisterPool(alias, dir, false); err != nil {
			return nil, err
		}
	}
	if err := pools.StartWatching(); err != nil {
		logging.PoolsWarn("pool watcher unavailable: %v", err)
	}

	var trail *audit.Store
	if cfg.Audit.Enabled {
		trail, err = audit.NewStore(cfg.StateDir())
		if err != nil {
			return nil, err
		}
	}

	manager := box.NewManager(cfg, pools)
	station := approval.NewStation()
	dispatcher := box.NewDispatcher(manager, gate.New(cfg.Gate.Enabled), station, trail)

	return &runtime{
		cfg:        cfg,
		pools:      pools,
		manager:    manager,
		dispatcher: dispatcher,
		station:    station,
		trail:      trail,
	}, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", ".", "workspace root")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringArrayVar(&poolFlags, "pool", nil, "mount a pool as alias=dir (repeatable, read-only)")
	rootCmd.PersistentFlags().BoolVar(&disableGat, "no-gate", false, "disable the command danger gate")

	rootCmd.AddCommand(poolsCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
