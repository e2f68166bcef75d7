package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/logger"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name string `form:"name" json:"name"`
}

type echoResponse struct {
	Greeting string `json:"greeting"`
}

func echo(_ context.Context, req *echoRequest) (*echoResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.InvalidParameter, "Empty name")
	}

	if req.Name == "boom" {
		return nil, errors.New("database is down")
	}

	return &echoResponse{Greeting: "hello " + req.Name}, nil
}

func newTestRouter() (*Router, *[]error) {
	ctx := xcontext.WithLogger(context.Background(), logger.NewLogger(logger.SILENCE))
	r := New(ctx)

	closed := []error{}
	r.AddCloser(func(ctx context.Context) {
		closed = append(closed, xcontext.Error(ctx))
	})

	GET(r, "/echo", echo)
	POST(r, "/echo", echo)

	guarded := r.Branch()
	guarded.Before(func(ctx context.Context) (context.Context, error) {
		if xcontext.HTTPRequest(ctx).Header.Get("Authorization") == "" {
			return ctx, errorx.New(errorx.Unauthenticated, "Missing token")
		}

		return ctx, nil
	})
	POST(guarded, "/guarded", echo)

	return r, &closed
}

func Test_Router(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		header     map[string]string
		wantStatus int
		wantCode   int64
		wantData   string
	}{
		{
			name:       "get binds query",
			method:     http.MethodGet,
			target:     "/echo?name=alice",
			wantStatus: http.StatusOK,
			wantData:   "hello alice",
		},
		{
			name:       "post binds json",
			method:     http.MethodPost,
			target:     "/echo",
			body:       `{"name":"bob"}`,
			wantStatus: http.StatusOK,
			wantData:   "hello bob",
		},
		{
			name:       "invalid json",
			method:     http.MethodPost,
			target:     "/echo",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   int64(errorx.BadRequest),
		},
		{
			name:       "domain error",
			method:     http.MethodPost,
			target:     "/echo",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   int64(errorx.InvalidParameter),
		},
		{
			name:       "unexpected error is hidden",
			method:     http.MethodPost,
			target:     "/echo",
			body:       `{"name":"boom"}`,
			wantStatus: http.StatusInternalServerError,
			wantCode:   int64(errorx.Unknown.Code),
		},
		{
			name:       "middleware rejects",
			method:     http.MethodPost,
			target:     "/guarded",
			body:       `{"name":"carol"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   int64(errorx.Unauthenticated),
		},
		{
			name:       "middleware passes",
			method:     http.MethodPost,
			target:     "/guarded",
			body:       `{"name":"carol"}`,
			header:     map[string]string{"Authorization": "Bearer x"},
			wantStatus: http.StatusOK,
			wantData:   "hello carol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, closed := newTestRouter()

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.Handler([]string{"*"}).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Code int64         `json:"code"`
				Data *echoResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tt.wantCode, resp.Code)
			if tt.wantData != "" {
				require.Equal(t, tt.wantData, resp.Data.Greeting)
			}

			require.Len(t, *closed, 1)
			require.Equal(t, tt.wantCode != 0, (*closed)[0] != nil)
		})
	}
}
