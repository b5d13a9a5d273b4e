package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/driftgate/server/internal/config"
	"github.com/driftgate/server/internal/core/event"
	coresys "github.com/driftgate/server/internal/core/system"
	"github.com/driftgate/server/internal/data"
	"github.com/driftgate/server/internal/handler"
	gonet "github.com/driftgate/server/internal/net"
	"github.com/driftgate/server/internal/net/packet"
	"github.com/driftgate/server/internal/persist"
	"github.com/driftgate/server/internal/scripting"
	"github.com/driftgate/server/internal/system"
	"github.com/driftgate/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Driftgate  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     region streaming · entity replication \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("DRIFTGATE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	// 4. Create repositories
	accountRepo := persist.NewAccountRepo(db, cfg.Account.BcryptCost)
	playerRepo := persist.NewPlayerRepo(db)

	// 5. Load region data and spawn scripted entities
	printSection("world data")

	catalog := world.NewCatalog(cfg.World.DefaultRegion, log)
	if err := data.LoadRegions(cfg.World.DataPath, catalog); err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	printStat("regions", catalog.Count())
	if !catalog.Has(cfg.World.DefaultRegion) {
		return fmt.Errorf("default region %d not found in %s", cfg.World.DefaultRegion, cfg.World.DataPath)
	}

	entities := world.NewRegistry(log)
	luaEngine, err := scripting.NewEngine(cfg.World.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()

	var spawnErr error
	catalog.ForEach(func(r *world.Region) {
		if spawnErr != nil {
			return
		}
		spawnErr = luaEngine.RunRegionSpawns(r, entities)
	})
	if spawnErr != nil {
		return fmt.Errorf("region spawns: %w", spawnErr)
	}
	printStat("spawned entities", entities.Count())
	fmt.Println()

	// 6. Create world state, event bus, packet registry
	worldState := world.NewState()
	bus := event.NewBus()

	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Config:      cfg,
		Log:         log,
		Catalog:     catalog,
		Entities:    entities,
		World:       worldState,
		AccountRepo: accountRepo,
		PlayerRepo:  playerRepo,
		Bus:         bus,
	}
	handler.RegisterAll(pktReg, deps)

	// 7. Create network server
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		cfg.Network.WriteTimeout,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 8. Create systems and register with runner
	store := gonet.NewSessionStore()
	runner := coresys.NewRunner()
	persistSys := system.NewPersistenceSystem(worldState, playerRepo, cfg.World.SaveIntervalTicks, log)
	runner.Register(system.NewInputSystem(netServer, pktReg, store, cfg.Network.MaxPacketsPerTick, deps, log))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewInterestSystem(worldState, deps, cfg.World.InterestIntervalTicks, log))
	runner.Register(system.NewOutputSystem(store))
	runner.Register(persistSys)

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	// Poll input between full ticks so packet dispatch does not wait for
	// the next tick boundary.
	inputPoll := time.NewTicker(cfg.Network.TickRate / 4)
	defer inputPoll.Stop()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case <-inputPoll.C:
			runner.TickPhase(coresys.PhaseInput, cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			persistSys.SaveAllPlayers()
			netServer.Shutdown()
			log.Info("server stopped")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
