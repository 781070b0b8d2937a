// Package server exposes the HTTP surface: the Meta webhook endpoints and
// a health check.
package server

import (
	"context"
	"net/http"
	"time"
)

type Config struct {
	Addr        string
	VerifyToken string
	AppSecret   string
}

// New builds the HTTP server with the webhook routes mounted.
func New(cfg Config, handler MessageHandler) *http.Server {
	hook := NewWebhookHandler(handler, cfg.VerifyToken)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /webhook", hook.Verify)
	mux.HandleFunc("POST /webhook", verifySignature(cfg.AppSecret, hook.Receive))
	mux.HandleFunc("GET /healthz", healthz)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

// Shutdown drains in-flight requests with a deadline.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
