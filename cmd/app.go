package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/lakshaymaurya-felt/wslmole/internal/compact"
	"github.com/lakshaymaurya-felt/wslmole/internal/config"
	"github.com/lakshaymaurya-felt/wslmole/internal/core"
	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
	"github.com/lakshaymaurya-felt/wslmole/internal/wsl"
)

// app wires the components for one invocation.
type app struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	wsl      *wsl.Client
	locator  *vhdx.Locator
	engine   *compact.Engine
	elevated func() bool
}

func newApp(cfg *config.Config, log logrus.FieldLogger, runner shell.Runner) (*app, error) {
	client := wsl.NewClient(runner, wsl.Options{
		Settle:       cfg.SettleDuration(),
		PollAttempts: cfg.Shutdown.PollAttempts,
		PollInterval: cfg.PollInterval(),
		Logger:       log,
	})

	scanRoot := ""
	if cfg.Locator.Scan {
		scanRoot = config.ScanRoot()
	}
	locator := vhdx.NewLocator(vhdx.Options{
		Lister:    client,
		Locations: config.GetDiskLocations(cfg.Locator.ExtraPaths),
		ScanRoot:  scanRoot,
		Logger:    log,
	})

	modern, err := compact.NewModern(client, cfg.Modern.MinWSLVersion)
	if err != nil {
		return nil, err
	}
	strategies := []compact.Strategy{
		modern,
		compact.NewDiskpart(runner, cfg.DiskpartTimeout()),
		compact.NewOptimizeVHD(runner, cfg.DiskpartTimeout(), nil),
	}

	engine := compact.NewEngine(compact.Options{
		WSL:        client,
		Locator:    locator,
		Strategies: strategies,
		Elevated:   core.IsElevated,
		Logger:     log,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		wsl:      client,
		locator:  locator,
		engine:   engine,
		elevated: core.IsElevated,
	}, nil
}
