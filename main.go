package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"crossroadSim/config"
	"crossroadSim/log"
	"crossroadSim/recorder"
	"crossroadSim/server"
	"crossroadSim/simulator"
	"crossroadSim/utils"

	"github.com/samber/lo"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Errorf("fatal: %v", err)
		log.CloseLog()
		os.Exit(1)
	}
	log.CloseLog()
}

func run(configPath string) error {
	// 加载配置文件
	if err := config.LoadConfig(configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.GetConfig()

	// 生成唯一的初始化时间标识
	initTime := time.Now().Format("20060102150405")
	if err := initializeLogging(cfg, initTime); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := cfg.Simulation.RunDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	opts := []simulator.Option{simulator.WithObserver(simulator.LoggingObserver{})}

	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		var err error
		rec, err = recorder.New(recorder.Options{Dir: cfg.Recorder.Dir, Stamp: initTime, Trace: cfg.Recorder.Trace})
		if err != nil {
			return fmt.Errorf("init recorder: %w", err)
		}
		opts = append(opts, simulator.WithObserver(rec), simulator.WithConsumer(rec))
	}

	var hub *server.Hub
	if cfg.Server.Enabled {
		hub = server.NewHub()
		opts = append(opts, simulator.WithConsumer(hub))
	}

	sim, err := simulator.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("init simulation: %w", err)
	}

	// 开始模拟
	log.WriteLog("----------------------------------Simulation Start----------------------------------")
	group := utils.NewTaskGroup(ctx)
	group.Go("simulation", sim.Run)
	if hub != nil {
		group.Go("telemetry-server", server.New(cfg.Server.Addr, hub).Run)
	}
	runErr := group.Wait()

	// 完成模拟，写入最后的数据
	if rec != nil {
		if err := rec.Close(); err != nil {
			log.Errorf("flush recorder: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	st := sim.State().Status()
	log.WithFields(log.Fields{
		"accidents": st.Accidents,
		"ingested":  st.Ingested,
		"vehicles":  st.Vehicles,
	}).Info("simulation summary")
	log.WriteLog("---------------------------------- Completed ----------------------------------")
	return nil
}

// initializeLogging 初始化日志并记录运行参数
func initializeLogging(cfg *config.Config, initTime string) error {
	if err := log.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logFile := filepath.Join(cfg.Logging.Dir, initTime+".log")
	if err := log.InitLog(logFile); err != nil {
		return err
	}
	log.LogEnvironment()

	// 记录模拟参数
	log.LogSimParameters(
		cfg.Simulation.TickRate,
		cfg.TrafficLight.GreenSeconds,
		cfg.TrafficLight.YellowSeconds,
		cfg.Spawn.IntervalSeconds,
		cfg.Spawn.Probability,
		cfg.Spawn.RecklessProbability,
		cfg.Accident.DurationSeconds,
		lo.Map(cfg.Intersection.Approaches, func(a config.Approach, _ int) string {
			return a.Direction
		}),
	)
	return nil
}
