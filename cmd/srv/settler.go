package main

import (
	"github.com/questx-lab/raffle/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startSettler(*cli.Context) error {
	if xcontext.Configs(s.ctx).Randomness.Provider != "kafka" {
		// Local deliveries never leave the process that requested them.
		return cli.Exit("settler needs the kafka randomness provider", 1)
	}

	s.loadEngine()

	xcontext.Logger(s.ctx).Infof("Start settler successfully")
	s.raffleDomain.ConsumeRandomness(s.ctx, s.deliveries)
	return nil
}
