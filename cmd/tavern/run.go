package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/tavernsim/server/internal/config"
	"github.com/tavernsim/server/internal/core/event"
	coresys "github.com/tavernsim/server/internal/core/system"
	"github.com/tavernsim/server/internal/metrics"
	"github.com/tavernsim/server/internal/persist"
	"github.com/tavernsim/server/internal/scripting"
	"github.com/tavernsim/server/internal/system"
	"github.com/tavernsim/server/internal/world"
)

func run(ctx context.Context, cfgPath string, maxTicks uint64) error {
	// 1. Load config
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

	printBanner(cfg.Server.Name)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 3. Load data tables and scripts
	printSection("資料載入")
	tbl, err := loadTables(cfg)
	if err != nil {
		return err
	}

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")
	fmt.Println()

	runner := coresys.NewRunner(log)
	collector := metrics.New()
	sinks := event.MultiSink{event.NewZapSink(log), collector}

	// 4. Optional event journal
	var journal *system.JournalSystem
	var journalRepo *persist.JournalRepo
	if cfg.Journal.Enabled {
		printSection("事件日誌")

		dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
		defer dbCancel()

		db, err := persist.NewDB(dbCtx, cfg.Journal, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		version, err := persist.RunMigrations(dbCtx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("資料庫版本", int(version))

		journalRepo = persist.NewJournalRepo(db, xid.New().String())
		journal = system.NewJournalSystem(journalRepo, runner.Ticks,
			cfg.Journal.FlushIntervalTicks, cfg.Journal.MaxBuffered, log)
		sinks = append(sinks, journal)
		printOK(fmt.Sprintf("執行編號 %s", journalRepo.RunID()))
		fmt.Println()
	}

	// 5. Wire world and managers
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	bus := event.NewBus(sinks)
	worldState := world.NewState()
	mover := world.NewMover(bus, tbl.dests, cfg.Movement.Speed, cfg.Movement.ArrivalEpsilon)
	factory := world.NewCustomerFactory(worldState, tbl.templates, tbl.dests, rng, luaEngine)

	customers := system.NewCustomerManager(bus, worldState, factory, mover, cfg.Customers, log)
	dayCycle := system.NewDayCycleManager(bus, cfg.DayCycle, log)

	// CustomerManager must be subscribed before DayCycleManager opens the day.
	managers := []coresys.Manager{
		customers,
		dayCycle,
		system.NewMovementSystem(worldState, mover),
		system.NewCleanupSystem(worldState, log),
	}
	if journal != nil {
		managers = append(managers, journal)
	}
	managers = append(managers, system.NewMetricsSystem(bus, worldState, collector))
	for _, m := range managers {
		if err := runner.Register(m); err != nil {
			return fmt.Errorf("register %s: %w", m.Name(), err)
		}
	}
	if err := runner.Initialize(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Listen, log); err != nil {
				log.Error("metrics listener", zap.Error(err))
			}
		}()
	}

	// 6. Start loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	commands := readConsole(ctx)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("模擬就緒")
	printReady(fmt.Sprintf("模擬迴圈啟動 (tick: %s, seed: %d)", cfg.Simulation.TickRate, seed))
	printReady("主控台指令: day / evening / status / quit")
	fmt.Println()

	loopErr := func() error {
		for {
			select {
			case <-ticker.C:
				start := time.Now()
				if err := runner.Tick(cfg.Simulation.TickRate); err != nil {
					return err
				}
				collector.ObserveTick(time.Since(start))
				if maxTicks > 0 && runner.Ticks() >= maxTicks {
					log.Info("已達指定 tick 數", zap.Uint64("ticks", runner.Ticks()))
					return nil
				}
			case line := <-commands:
				if quit := handleCommand(line, customers, dayCycle, worldState, runner, log); quit {
					return nil
				}
			case sig := <-shutdownCh:
				log.Info("收到關閉信號", zap.String("signal", sig.String()))
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	}()
	if loopErr != nil {
		log.Error("模擬中止", zap.Error(loopErr))
	}

	if err := runner.Dispose(); err != nil {
		log.Error("dispose", zap.Error(err))
		if loopErr == nil {
			loopErr = err
		}
	}

	if journalRepo != nil {
		reportCtx, reportCancel := context.WithTimeout(context.Background(), 5*time.Second)
		counts, err := journalRepo.CountByKind(reportCtx)
		reportCancel()
		if err != nil {
			log.Warn("journal summary", zap.Error(err))
		} else {
			printSection("事件統計")
			for kind, n := range counts {
				printStat(kind, int(n))
			}
		}
	}

	log.Info("模擬已停止", zap.Uint64("ticks", runner.Ticks()))
	return loopErr
}

// readConsole forwards trimmed stdin lines until EOF or ctx is done.
func readConsole(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// handleCommand runs one console command on the loop goroutine and reports
// whether the loop should stop.
func handleCommand(line string, customers *system.CustomerManager, dayCycle *system.DayCycleManager,
	ws *world.State, runner *coresys.Runner, log *zap.Logger) bool {

	switch strings.ToLower(line) {
	case "day":
		dayCycle.ChangeState(event.Day)
	case "evening":
		dayCycle.ChangeState(event.Evening)
	case "status":
		fmt.Printf("  tick=%d  time=%s  spawning=%t  tracked=%d  in_world=%d\n",
			runner.Ticks(), dayCycle.State(), customers.Active(), customers.LiveCount(), ws.CustomerCount())
	case "quit", "exit":
		log.Info("主控台要求關閉")
		return true
	default:
		fmt.Printf("  未知指令: %s\n", line)
	}
	return false
}

func check(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)
	printSection("設定檢查")
	printOK(fmt.Sprintf("設定檔 %s", cfgPath))

	if _, err := loadTables(cfg); err != nil {
		return err
	}

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	if luaEngine.HasFunction(scripting.SpawnWeightFunc) {
		printOK("calc_spawn_weight 已定義")
	} else {
		printOK("未定義 calc_spawn_weight，使用資料表權重")
	}
	fmt.Println()
	return nil
}
