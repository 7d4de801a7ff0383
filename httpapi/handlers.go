package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mrtj/pyncoin/apperr"
	"github.com/mrtj/pyncoin/core"
)

// Backend is everything the HTTP layer needs from the node facade. It is
// defined here, not in package node, so httpapi has no import-time
// dependency on node — node.Node satisfies it by construction.
type Backend interface {
	Blocks() []*core.Block
	BlockByHash(hash core.Hash) (*core.Block, bool)
	TransactionByID(id core.Hash) (*core.Transaction, bool)
	UnspentOutputsFor(addr core.Address) []core.UnspentTxOut
	UTXOSnapshot() core.UTXOSet
	MyUnspentOutputs() []core.UnspentTxOut
	Balance(addr core.Address) core.Amount
	MyBalance() core.Amount
	MyAddress() core.Address
	Peers() []string
	AddPeer(ctx context.Context, addr string) error
	MineRawBlock(ctx context.Context, data []*core.Transaction) (*core.Block, error)
	MineBlock(ctx context.Context) (*core.Block, error)
	MineTransaction(ctx context.Context, to core.Address, amount core.Amount) (*core.Block, error)
	SendTransaction(to core.Address, amount core.Amount) (*core.Transaction, error)
	TransactionPool() []*core.Transaction
}

// Handlers implements every route NewRouter wires, rendering results as
// JSON and errors as apperr's {error, message, payload?} envelope.
type Handlers struct {
	backend Backend
}

// NewHandlers builds Handlers bound to backend.
func NewHandlers(backend Backend) *Handlers {
	return &Handlers{backend: backend}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if ae, ok := err.(*apperr.Error); ok {
		writeJSON(w, ae.Status(), ae.Envelope())
		return
	}
	writeJSON(w, http.StatusInternalServerError, apperr.New(apperr.KindBadRequest, err.Error()).Envelope())
}

func parseHash(w http.ResponseWriter, raw string) (core.Hash, bool) {
	h, err := core.HashFromHex(raw)
	if err != nil {
		writeError(w, apperr.BadRequest("malformed hash: "+err.Error()))
		return core.Hash{}, false
	}
	return h, true
}

func parseAddress(w http.ResponseWriter, raw string) (core.Address, bool) {
	addr, err := core.AddressFromHex(raw)
	if err != nil {
		writeError(w, apperr.BadRequest("malformed address: "+err.Error()))
		return core.Address{}, false
	}
	return addr, true
}

// ListBlocks implements GET /blocks.
func (h *Handlers) ListBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Blocks())
}

// GetBlock implements GET /block/{hash}.
func (h *Handlers) GetBlock(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseHash(w, chi.URLParam(r, "hash"))
	if !ok {
		return
	}
	block, found := h.backend.BlockByHash(hash)
	if !found {
		writeError(w, apperr.NotFound("no block with that hash"))
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// GetTransaction implements GET /transaction/{id}.
func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseHash(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	tx, found := h.backend.TransactionByID(id)
	if !found {
		writeError(w, apperr.NotFound("no transaction with that id"))
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// GetAddress implements GET /address/{addr}.
func (h *Handlers) GetAddress(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, chi.URLParam(r, "addr"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unspentTxOuts": h.backend.UnspentOutputsFor(addr),
	})
}

// ListUnspentTxOuts implements GET /unspentTransactionOutputs.
func (h *Handlers) ListUnspentTxOuts(w http.ResponseWriter, r *http.Request) {
	snap := h.backend.UTXOSnapshot()
	out := make([]core.UnspentTxOut, 0, len(snap))
	for _, u := range snap {
		out = append(out, u)
	}
	writeJSON(w, http.StatusOK, out)
}

// ListMyUnspentTxOuts implements GET /myUnspentTransactionOutputs.
func (h *Handlers) ListMyUnspentTxOuts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.MyUnspentOutputs())
}

// GetBalance implements GET /balance.
func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"balance": h.backend.MyBalance()})
}

// GetMyAddress implements GET /address.
func (h *Handlers) GetMyAddress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"address": h.backend.MyAddress()})
}

// ListPeers implements GET /peers.
func (h *Handlers) ListPeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"peers": h.backend.Peers()})
}

// ListTransactionPool implements GET /transactionPool.
func (h *Handlers) ListTransactionPool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.TransactionPool())
}

type addPeerRequest struct {
	Peer string `json:"peer"`
}

// AddPeer implements POST /addPeer.
func (h *Handlers) AddPeer(w http.ResponseWriter, r *http.Request) {
	var req addPeerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Peer == "" {
		writeError(w, apperr.BadRequest("request body must be {\"peer\": \"host:port\"}"))
		return
	}
	if err := h.backend.AddPeer(r.Context(), req.Peer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"peer_added": req.Peer})
}

type mineRawBlockRequest struct {
	Data []*core.Transaction `json:"data"`
}

// MineRawBlock implements POST /mineRawBlock.
func (h *Handlers) MineRawBlock(w http.ResponseWriter, r *http.Request) {
	var req mineRawBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.BadRequest("request body must be {\"data\": [tx, ...]}"))
		return
	}
	block, err := h.backend.MineRawBlock(r.Context(), req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// MineBlock implements POST /mineBlock.
func (h *Handlers) MineBlock(w http.ResponseWriter, r *http.Request) {
	block, err := h.backend.MineBlock(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

type mineTransactionRequest struct {
	Address core.Address `json:"address"`
	Amount  core.Amount  `json:"amount"`
}

// MineTransaction implements POST /mineTransaction.
func (h *Handlers) MineTransaction(w http.ResponseWriter, r *http.Request) {
	var req mineTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.BadRequest("request body must be {\"address\": hex, \"amount\": number}"))
		return
	}
	block, err := h.backend.MineTransaction(r.Context(), req.Address, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

type sendTransactionRequest struct {
	Address core.Address `json:"address"`
	Amount  core.Amount  `json:"amount"`
}

// SendTransaction implements POST /sendTransaction.
func (h *Handlers) SendTransaction(w http.ResponseWriter, r *http.Request) {
	var req sendTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.BadRequest("request body must be {\"address\": hex, \"amount\": number}"))
		return
	}
	tx, err := h.backend.SendTransaction(req.Address, req.Amount)
	if err != nil {
		writeError(w, apperr.WithPayload(apperr.KindValidationRejected, err.Error(), nil))
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
