package main

import "github.com/urfave/cli/v2"

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to the TOML config file",
	EnvVars: []string{"RAFFLE_CONFIG"},
}

func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "Raffle"
	s.app.Usage = "Raffle ledger and settlement engine"
	s.app.Flags = []cli.Flag{configFlag}
	s.app.Before = s.loadConfig
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used for start service api, it also settles raffles when randomness is delivered.`,
		},
		{
			Action:      s.startSettler,
			Name:        "settler",
			Usage:       "Start service settler",
			Category:    "Worker",
			Description: `Used to consume randomness deliveries from kafka and settle raffles.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate database schema",
			Category:    "Tool",
			Description: `Used to create or update every raffle table.`,
		},
		{
			Action:   s.startToken,
			Name:     "token",
			Usage:    "Generate an access token",
			Category: "Tool",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "address", Usage: "Wallet address of the token owner", Required: true},
			},
			Description: `Used to mint an access token for a wallet address with the configured secret.`,
		},
	}
}
