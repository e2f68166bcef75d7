package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/urfave/cli/v2"
)

func (s *srv) startToken(cctx *cli.Context) error {
	address := cctx.String("address")
	if !common.IsHexAddress(address) {
		return cli.Exit(fmt.Sprintf("invalid address %s", address), 1)
	}

	s.loadAuth()
	hex := common.HexToAddress(address).Hex()
	token, err := s.tokenEngine.Generate(hex, model.AccessToken{Address: hex})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
