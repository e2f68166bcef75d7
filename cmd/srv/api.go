package main

import (
	"fmt"
	"net/http"

	"github.com/questx-lab/raffle/internal/middleware"
	"github.com/questx-lab/raffle/pkg/prometheus"
	"github.com/questx-lab/raffle/pkg/router"
	"github.com/questx-lab/raffle/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadEngine()
	s.loadAuth()
	s.loadRouter()

	go s.raffleDomain.ConsumeRandomness(s.ctx, s.deliveries)

	cfg := xcontext.Configs(s.ctx)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.ApiServer.Host, cfg.ApiServer.Port),
		Handler: s.router.Handler(cfg.ApiServer.AllowedOrigins),
	}

	xcontext.Logger(s.ctx).Infof("Starting server on port: %s", cfg.ApiServer.Port)
	if err := httpSrv.ListenAndServe(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stop")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())
	s.router.Handle(http.MethodGet, "/metrics", prometheus.NewHandler())

	// These following APIs need authentication with Access Token.
	authRouter := s.router.Branch()
	authVerifier := middleware.NewAuthVerifier(s.tokenEngine)
	authRouter.Before(authVerifier.Middleware())
	{
		// Raffle API
		router.POST(authRouter, "/createRaffle", s.raffleDomain.CreateRaffle)
		router.POST(authRouter, "/stake", s.raffleDomain.Stake)
		router.POST(authRouter, "/purchaseEntries", s.raffleDomain.PurchaseEntries)
		router.POST(authRouter, "/grantFreeEntries", s.raffleDomain.GrantFreeEntries)
		router.POST(authRouter, "/requestClosure", s.raffleDomain.RequestClosure)
		router.POST(authRouter, "/cancelRaffle", s.raffleDomain.CancelRaffle)
		router.POST(authRouter, "/claimRefund", s.raffleDomain.ClaimRefund)
		router.POST(authRouter, "/sweepRemainingFunds", s.raffleDomain.SweepRemainingFunds)
		router.POST(authRouter, "/resumeTransfers", s.raffleDomain.ResumeTransfers)

		// Role API
		router.GET(authRouter, "/getRoles", s.roleDomain.GetRoles)
		router.POST(authRouter, "/grantRole", s.roleDomain.GrantRole)
		router.POST(authRouter, "/revokeRole", s.roleDomain.RevokeRole)
	}

	// Public API.
	router.GET(s.router, "/getRaffle", s.raffleDomain.GetRaffle)
	router.GET(s.router, "/getRaffles", s.raffleDomain.GetRaffles)
	router.GET(s.router, "/getClaim", s.raffleDomain.GetClaim)
	router.GET(s.router, "/getEntries", s.raffleDomain.GetEntries)
	router.GET(s.router, "/getWinner", s.raffleDomain.GetWinner)
}
