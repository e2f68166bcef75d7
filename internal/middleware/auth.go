package middleware

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/authenticator"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/router"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

type AuthVerifier struct {
	engine authenticator.TokenEngine[model.AccessToken]
}

func NewAuthVerifier(engine authenticator.TokenEngine[model.AccessToken]) *AuthVerifier {
	return &AuthVerifier{engine: engine}
}

// Middleware puts the wallet address of the verified access token into the
// context. Requests without a valid token are rejected.
func (a *AuthVerifier) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		req := xcontext.HTTPRequest(ctx)
		authorization := req.Header.Get("Authorization")
		token, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || token == "" {
			return ctx, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		info, err := a.engine.Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid access token: %v", err)
			return ctx, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		if !common.IsHexAddress(info.Address) {
			return ctx, errorx.New(errorx.Unauthenticated, "Invalid address in access token")
		}

		return xcontext.WithRequestAddress(ctx, common.HexToAddress(info.Address)), nil
	}
}
