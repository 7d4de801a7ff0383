package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrtj/pyncoin/apperr"
	"github.com/mrtj/pyncoin/core"
)

// fakeBackend is a minimal, test-only Backend, standing in for node.Node so
// handler behavior can be asserted without mining a real chain.
type fakeBackend struct {
	blocks      []*core.Block
	balance     core.Amount
	myAddr      core.Address
	peers       []string
	addPeerErr  error
	addedPeer   string
	sendTxErr   error
	sentTx      *core.Transaction
}

func (b *fakeBackend) Blocks() []*core.Block { return b.blocks }
func (b *fakeBackend) BlockByHash(hash core.Hash) (*core.Block, bool) {
	for _, bl := range b.blocks {
		if bl.Hash == hash {
			return bl, true
		}
	}
	return nil, false
}
func (b *fakeBackend) TransactionByID(id core.Hash) (*core.Transaction, bool) { return nil, false }
func (b *fakeBackend) UnspentOutputsFor(addr core.Address) []core.UnspentTxOut { return nil }
func (b *fakeBackend) UTXOSnapshot() core.UTXOSet                              { return core.NewUTXOSet() }
func (b *fakeBackend) MyUnspentOutputs() []core.UnspentTxOut                   { return nil }
func (b *fakeBackend) Balance(addr core.Address) core.Amount                  { return b.balance }
func (b *fakeBackend) MyBalance() core.Amount                                 { return b.balance }
func (b *fakeBackend) MyAddress() core.Address                                { return b.myAddr }
func (b *fakeBackend) Peers() []string                                        { return b.peers }
func (b *fakeBackend) AddPeer(ctx context.Context, addr string) error {
	b.addedPeer = addr
	return b.addPeerErr
}
func (b *fakeBackend) MineRawBlock(ctx context.Context, data []*core.Transaction) (*core.Block, error) {
	return core.NewGenesisBlock(), nil
}
func (b *fakeBackend) MineBlock(ctx context.Context) (*core.Block, error) {
	return core.NewGenesisBlock(), nil
}
func (b *fakeBackend) MineTransaction(ctx context.Context, to core.Address, amount core.Amount) (*core.Block, error) {
	return core.NewGenesisBlock(), nil
}
func (b *fakeBackend) SendTransaction(to core.Address, amount core.Amount) (*core.Transaction, error) {
	return b.sentTx, b.sendTxErr
}
func (b *fakeBackend) TransactionPool() []*core.Transaction { return nil }

func newTestRouter(b *fakeBackend) http.Handler {
	return NewRouter(NewHandlers(b), nil)
}

func TestListBlocks(t *testing.T) {
	backend := &fakeBackend{blocks: []*core.Block{core.NewGenesisBlock()}}
	req := httptest.NewRequest(http.MethodGet, "/blocks", nil)
	rec := httptest.NewRecorder()

	newTestRouter(backend).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []*core.Block
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestGetBlockNotFound(t *testing.T) {
	backend := &fakeBackend{}
	req := httptest.NewRequest(http.MethodGet, "/block/"+core.Sha256([]byte("x")).String(), nil)
	rec := httptest.NewRecorder()

	newTestRouter(backend).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, string(apperr.KindNotFound), env["error"])
}

func TestGetBlockMalformedHash(t *testing.T) {
	backend := &fakeBackend{}
	req := httptest.NewRequest(http.MethodGet, "/block/not-a-hash", nil)
	rec := httptest.NewRecorder()

	newTestRouter(backend).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBalance(t *testing.T) {
	backend := &fakeBackend{balance: core.NewAmount(42)}
	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	rec := httptest.NewRecorder()

	newTestRouter(backend).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balance": 42}`, rec.Body.String())
}

func TestAddPeerRequiresPeerField(t *testing.T) {
	backend := &fakeBackend{}
	req := httptest.NewRequest(http.MethodPost, "/addPeer", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	newTestRouter(backend).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddPeerSucceeds(t *testing.T) {
	backend := &fakeBackend{}
	req := httptest.NewRequest(http.MethodPost, "/addPeer", strings.NewReader(`{"peer": "10.0.0.1:7000"}`))
	rec := httptest.NewRecorder()

	newTestRouter(backend).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10.0.0.1:7000", backend.addedPeer)
	assert.JSONEq(t, `{"peer_added": "10.0.0.1:7000"}`, rec.Body.String())
}

func TestSendTransactionRendersValidationRejection(t *testing.T) {
	backend := &fakeBackend{sendTxErr: core.ErrInsufficientFunds}
	priv, err := core.GenerateKey()
	require.NoError(t, err)
	body := `{"address": "` + priv.Address().String() + `", "amount": 5}`
	req := httptest.NewRequest(http.MethodPost, "/sendTransaction", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTestRouter(backend).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, string(apperr.KindValidationRejected), env["error"])
}
