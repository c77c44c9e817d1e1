package api

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewServer creates the HTTP server for handler. Request contexts derive
// from ctx and are cancelled as soon as Shutdown starts, so open event
// streams end instead of holding the shutdown until its deadline.
func NewServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	ctx, cancel := context.WithCancel(ctx)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server.RegisterOnShutdown(cancel)
	return server
}
