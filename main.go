package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/wfunc/dicebox/client"
	"github.com/wfunc/dicebox/config"
	"github.com/wfunc/dicebox/demo"
	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/monitor"
	"github.com/wfunc/dicebox/persistence"
	"github.com/wfunc/dicebox/server"
	"github.com/wfunc/dicebox/services"
	"github.com/wfunc/dicebox/state"
)

func main() {
	app := cli.NewApp()
	app.Name = "dicebox"
	app.Usage = "A single-button electronic dice"
	app.Version = "0.1"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: ".",
			Usage: "directory containing config.yaml",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "override log.level [debug|info|warn|error]",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "demo",
			Usage:  "press the button dice.presses times and print the dice after each press",
			Action: demoCommand,
		},
		{
			Name:   "serve",
			Usage:  "start the websocket remote button and RPC journal",
			Action: serveCommand,
		},
		{
			Name:  "client",
			Usage: "interactive remote button",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "url",
					Value: "ws://localhost:8080/ws",
					Usage: "dice server websocket url",
				},
			},
			Action: clientCommand,
		},
	}
	app.Action = demoCommand

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and initialises the logger.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if l := c.GlobalString("log-level"); l != "" {
		level = l
	}
	logger.Init(level, cfg.Log.Development)
	return cfg, nil
}

func newDiceService(cfg *config.Config, mon *monitor.Monitor) (*services.DiceService, persistence.Journal, error) {
	journal, err := persistence.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Log.Infof("Press journal: %s", cfg.Database.Driver)

	svc := services.NewDiceService(journal, mon)
	dc := cfg.Dice
	if dc.Randomize {
		svc.SetRollerFactory(func() state.Roller {
			return state.NewRandomRoller(dc.Faces, time.Now().UnixNano())
		})
	} else {
		svc.SetRollerFactory(func() state.Roller {
			return state.FixedRoller(uint8(dc.Number))
		})
	}
	return svc, journal, nil
}

func demoCommand(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mon := monitor.NewMonitor("dicebox")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	svc, journal, err := newDiceService(cfg, mon)
	if err != nil {
		return err
	}
	defer journal.Close()

	dice := svc.NewDice(demo.Owner, os.Stdout)
	return demo.Run(dice, cfg.Dice.Presses, cfg.Output.Format, os.Stdout)
}

func serveCommand(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mon := monitor.NewMonitor("dicebox")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	svc, journal, err := newDiceService(cfg, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to open press journal: %v", err)
	}
	defer journal.Close()

	diceServer := server.NewDiceServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, svc, mon)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Log.Info("Shutting down dice server")
		diceServer.Shutdown()
	}()

	return diceServer.Start()
}

func clientCommand(c *cli.Context) error {
	if _, err := setup(c); err != nil {
		return err
	}
	defer logger.Sync()

	cl, err := client.Dial(c.String("url"), os.Stdout)
	if err != nil {
		return err
	}
	defer cl.Close()
	return cl.Run(os.Stdin)
}
