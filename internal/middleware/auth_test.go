package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/authenticator"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_AuthVerifier_Middleware(t *testing.T) {
	engine := authenticator.NewTokenEngine[model.AccessToken]("secret", time.Minute)
	validToken, err := engine.Generate(testutil.Buyer1.Hex(), model.AccessToken{Address: testutil.Buyer1.Hex()})
	require.NoError(t, err)

	badAddressToken, err := engine.Generate("someone", model.AccessToken{Address: "someone"})
	require.NoError(t, err)

	otherEngine := authenticator.NewTokenEngine[model.AccessToken]("other-secret", time.Minute)
	foreignToken, err := otherEngine.Generate(testutil.Buyer1.Hex(), model.AccessToken{Address: testutil.Buyer1.Hex()})
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		wantErr       bool
	}{
		{name: "valid token", authorization: "Bearer " + validToken},
		{name: "missing header", authorization: "", wantErr: true},
		{name: "missing bearer", authorization: validToken, wantErr: true},
		{name: "wrong secret", authorization: "Bearer " + foreignToken, wantErr: true},
		{name: "invalid address", authorization: "Bearer " + badAddressToken, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/stake", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}

			ctx := xcontext.WithHTTPRequest(testutil.MockContext(), req)
			ctx, err := NewAuthVerifier(engine).Middleware()(ctx)
			if tt.wantErr {
				require.ErrorIs(t, err, errorx.Error{Code: errorx.Unauthenticated})
				return
			}

			require.NoError(t, err)
			require.Equal(t, testutil.Buyer1, xcontext.RequestAddress(ctx))
		})
	}
}
