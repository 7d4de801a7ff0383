package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mrtj/pyncoin/config"
	"github.com/mrtj/pyncoin/core"
	"github.com/mrtj/pyncoin/gossip/wstransport"
	"github.com/mrtj/pyncoin/httpapi"
	"github.com/mrtj/pyncoin/node"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	wallet, err := core.LoadOrCreate(cfg.KeyLocation)
	if err != nil {
		log.Error("load wallet", "error", err)
		os.Exit(1)
	}
	log.Info("wallet loaded", "address", wallet.Address())

	n := node.New(wallet, log)

	dialer := wstransport.NewDialer()
	mux := http.NewServeMux()
	mux.HandleFunc("/p2p", func(w http.ResponseWriter, r *http.Request) {
		conn, err := dialer.Upgrade(w, r)
		if err != nil {
			log.Warn("p2p upgrade failed", "error", err)
			return
		}
		if _, registered := n.Registry().Register(conn); !registered {
			log.Info("p2p duplicate connection ignored", "peer", conn.Addr())
			_ = conn.Close()
			return
		}
		if err := n.Engine().OnConnect(conn); err != nil {
			log.Warn("p2p handshake failed", "peer", conn.Addr(), "error", err)
		}
		go func() {
			err := conn.ReadLoop(func(frame []byte) bool {
				n.Engine().Handle(conn, frame)
				return true
			})
			if err != nil {
				log.Info("peer disconnected", "peer", conn.Addr(), "error", err)
			}
			n.Registry().Unregister(conn.Addr())
		}()
	})

	handlers := httpapi.NewHandlers(n)

	p2pAddr := fmt.Sprintf(":%d", cfg.P2PPort)
	go func() {
		log.Info("p2p listening", "addr", p2pAddr)
		if err := http.ListenAndServe(p2pAddr, mux); err != nil {
			log.Error("p2p server", "error", err)
			os.Exit(1)
		}
	}()

	for _, peer := range cfg.Peers {
		if err := n.AddPeer(context.Background(), peer); err != nil {
			log.Warn("dial peer", "peer", peer, "error", err)
		}
	}

	webAddr := fmt.Sprintf(":%d", cfg.WebPort)
	log.Info("http api listening", "addr", webAddr)
	if err := http.ListenAndServe(webAddr, httpapi.NewRouter(handlers, log)); err != nil {
		log.Error("http server", "error", err)
		os.Exit(1)
	}
}
