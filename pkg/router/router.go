package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. A non-nil error stops the request
// and is written as the response.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response is written, whatever the outcome.
type CloserFunc func(ctx context.Context)

type Router struct {
	rootCtx context.Context
	engine  *gin.Engine

	befores []MiddlewareFunc
	closers []CloserFunc
}

// New creates a router whose handlers see every value carried by rootCtx
// (configs, logger, database).
func New(rootCtx context.Context) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		rootCtx: rootCtx,
		engine:  gin.New(),
	}
}

// Branch returns a router sharing the same engine, starting with a copy of
// the current middlewares.
func (r *Router) Branch() *Router {
	return &Router{
		rootCtx: r.rootCtx,
		engine:  r.engine,
		befores: append([]MiddlewareFunc(nil), r.befores...),
		closers: append([]CloserFunc(nil), r.closers...),
	}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) AddCloser(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

func (r *Router) Handle(method, pattern string, handler http.Handler) {
	r.engine.Handle(method, pattern, gin.WrapH(handler))
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.engine.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.engine.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Handler(allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r.engine)
}
