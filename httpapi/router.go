// Package httpapi exposes the node's operator-facing JSON surface over
// go-chi/chi/v5, implementing every route spec.md §6 names.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router for h's routes.
func NewRouter(h *Handlers, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/blocks", h.ListBlocks)
	r.Get("/block/{hash}", h.GetBlock)
	r.Get("/transaction/{id}", h.GetTransaction)
	r.Get("/address/{addr}", h.GetAddress)
	r.Get("/unspentTransactionOutputs", h.ListUnspentTxOuts)
	r.Get("/myUnspentTransactionOutputs", h.ListMyUnspentTxOuts)
	r.Get("/balance", h.GetBalance)
	r.Get("/address", h.GetMyAddress)
	r.Get("/peers", h.ListPeers)
	r.Get("/transactionPool", h.ListTransactionPool)

	r.Post("/addPeer", h.AddPeer)
	r.Post("/mineRawBlock", h.MineRawBlock)
	r.Post("/mineBlock", h.MineBlock)
	r.Post("/mineTransaction", h.MineTransaction)
	r.Post("/sendTransaction", h.SendTransaction)

	return r
}

// requestLogger logs each request's method, path, status, and duration
// at Info level, matching the structured logging the ambient stack
// prescribes for every subsystem.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
