package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/EMinsight/fdtd3d/calculator"
	"github.com/EMinsight/fdtd3d/config"
	"github.com/EMinsight/fdtd3d/rebalance"
	"github.com/EMinsight/fdtd3d/transport"
)

const dialTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to an .ini or .yaml config (empty = defaults)")
	rank := flag.Int("rank", 0, "Rank of this process in topology.nodes")
	local := flag.Int("local", 0, "Run N nodes in this process instead of one node per process")
	steps := flag.Int64("steps", 0, "Override run.steps")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	cfg.SetupLogging()
	if *steps > 0 {
		cfg.Run.Steps = *steps
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *local > 0 {
		err = runLocal(ctx, cfg, *local)
	} else {
		err = runNode(ctx, cfg, *rank)
	}
	if err != nil {
		log.WithError(err).Fatal("run failed")
	}
}

// runNode joins the websocket mesh as rank.
func runNode(ctx context.Context, cfg *config.Config, rank int) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	hub, err := transport.DialMesh(dialCtx, rank, cfg.Topology.Nodes)
	cancel()
	if err != nil {
		return err
	}
	defer hub.Close()
	return run(ctx, cfg, hub)
}

// runLocal runs n nodes on goroutines over the in-process mesh. The first failure
// cancels the others.
func runLocal(ctx context.Context, cfg *config.Config, n int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	comms := transport.NewLocalMesh(n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for r, comm := range comms {
		wg.Add(1)
		go func(r int, comm transport.Comm) {
			defer wg.Done()
			defer comm.Close()
			if errs[r] = run(ctx, cfg, comm); errs[r] != nil {
				cancel()
			}
		}(r, comm)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, comm transport.Comm) error {
	axis, err := cfg.RebalanceAxis()
	if err != nil {
		return err
	}
	opts := calculator.Options{
		Layout:        cfg.LayoutParams(),
		Shape:         cfg.Shape(),
		RebalanceAxis: axis,
		Halo:          cfg.Topology.Halo,
		ShareInterval: cfg.Topology.ShareInterval,
		Rebalance: rebalance.Config{
			Interval:  cfg.Rebalance.Interval,
			Threshold: cfg.Rebalance.Threshold,
		},
		Workers: cfg.Run.Workers,
	}
	if comm.Rank() == 0 {
		report, err := calculator.OpenReport(cfg.Run.Report)
		if err != nil {
			return err
		}
		defer report.Close()
		opts.Report = report
	}

	c, err := calculator.New(ctx, comm, opts)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Run(ctx, cfg.Run.Steps)
}
