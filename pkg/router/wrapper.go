package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	befores := router.befores
	closers := router.closers

	return func(c *gin.Context) {
		ctx := xcontext.WithHTTPRequest(router.rootCtx, c.Request)
		ctx = xcontext.WithStartTime(ctx, time.Now())

		resp, err := func() (any, error) {
			var err error
			for _, before := range befores {
				if ctx, err = before(ctx); err != nil {
					return nil, err
				}
			}

			var req Request
			if method == "GET" {
				err = c.ShouldBindQuery(&req)
			} else {
				err = c.ShouldBindJSON(&req)
			}
			if err != nil {
				xcontext.Logger(ctx).Debugf("Cannot bind request: %v", err)
				return nil, errorx.New(errorx.BadRequest, "Invalid request format")
			}

			return handler(ctx, &req)
		}()

		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			writeJSON(c, newErrorResponse(err))
		} else {
			writeJSON(c, newResponse(resp))
		}

		for _, closer := range closers {
			closer(ctx)
		}
	}
}

func writeJSON(c *gin.Context, resp response) {
	c.JSON(resp.status(), resp)
}

