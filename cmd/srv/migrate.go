package main

import (
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(*cli.Context) error {
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()

	xcontext.Logger(s.ctx).Infof("Migrate database successfully")
	return nil
}
