// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keldachain/kelda/api"
	"github.com/keldachain/kelda/genesis"
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/lvldb"
	"github.com/keldachain/kelda/pipeline"
	"github.com/keldachain/kelda/receiptdb"
	"github.com/keldachain/kelda/tx"
	"github.com/keldachain/kelda/txpool"
)

type testNode struct {
	ts   *httptest.Server
	pool *txpool.TxPool
	pipe *pipeline.Pipeline
}

func newTestNode(t *testing.T) *testNode {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	receipts := receiptdb.New(db)
	ldgr := ledger.New(db, genesis.NewDevnet().Alloc())
	pool := txpool.New(receipts, txpool.Options{
		Limit:           1000,
		LimitPerAccount: 100,
		MaxLifetime:     time.Hour,
	})
	t.Cleanup(pool.Close)

	handler := api.New(ldgr, pool, receipts, api.Options{AllowedOrigins: "*"})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &testNode{
		ts:   ts,
		pool: pool,
		pipe: pipeline.New(pool, ldgr, receipts, pipeline.Options{}),
	}
}

func (n *testNode) post(t *testing.T, path string, body any) (int, []byte) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(n.ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return res.StatusCode, buf.Bytes()
}

func (n *testNode) get(t *testing.T, path string) (int, []byte) {
	res, err := http.Get(n.ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return res.StatusCode, buf.Bytes()
}

func (n *testNode) delete(t *testing.T, path string) int {
	req, err := http.NewRequest(http.MethodDelete, n.ts.URL+path, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	return res.StatusCode
}

func rawTxBody(t *testing.T, trx *tx.Transaction) map[string]string {
	data, err := rlp.EncodeToBytes(trx)
	require.NoError(t, err)
	return map[string]string{"raw": hexutil.Encode(data)}
}

func devSignedTx(t *testing.T, account int, nonce uint64, kind *tx.Kind) *tx.Transaction {
	dev := genesis.DevAccounts()[account]
	trx := new(tx.Builder).Nonce(nonce).Kind(kind).Build()
	signed, err := tx.Sign(trx, dev.PrivateKey)
	require.NoError(t, err)
	return signed
}

func TestSubmitAndReceiptFlow(t *testing.T) {
	n := newTestNode(t)

	dev := genesis.DevAccounts()
	trx := devSignedTx(t, 0, 0, tx.NewTransferKind(dev[1].Address, 500))

	code, body := n.post(t, "/transactions", rawTxBody(t, trx))
	require.Equal(t, http.StatusOK, code, string(body))

	var submitRes map[string]string
	require.NoError(t, json.Unmarshal(body, &submitRes))
	assert.Equal(t, trx.Hash().String(), submitRes["hash"])

	// pending receipt visible immediately
	code, body = n.get(t, "/transactions/"+trx.Hash().String()+"/receipt")
	require.Equal(t, http.StatusOK, code)
	var receipt map[string]any
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, "pending", receipt["status"])

	// resubmission of the same hash conflicts
	code, _ = n.post(t, "/transactions", rawTxBody(t, trx))
	assert.Equal(t, http.StatusConflict, code)

	_, _, err := n.pipe.RunBatch()
	require.NoError(t, err)

	code, body = n.get(t, "/transactions/"+trx.Hash().String()+"/receipt")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, "committed", receipt["status"])

	// balances observable through the accounts endpoint
	code, body = n.get(t, "/accounts/"+dev[1].Address.String())
	require.Equal(t, http.StatusOK, code)
	var acc map[string]uint64
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, kelda.InitialBalance+500, acc["balance"])
}

func TestSubmitMalformed(t *testing.T) {
	n := newTestNode(t)

	code, _ := n.post(t, "/transactions", map[string]string{"raw": "not-hex"})
	assert.Equal(t, http.StatusBadRequest, code)

	unsigned := new(tx.Builder).Nonce(0).Kind(tx.NewSetValueKind("k", "v")).Build()
	code, _ = n.post(t, "/transactions", rawTxBody(t, unsigned))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestReceiptUnknownHash(t *testing.T) {
	n := newTestNode(t)

	code, _ := n.get(t, fmt.Sprintf("/transactions/%v/receipt", kelda.Bytes32{}))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStorageEndpoint(t *testing.T) {
	n := newTestNode(t)

	trx := devSignedTx(t, 0, 0, tx.NewSetValueKind("city", "aberdeen"))
	code, _ := n.post(t, "/transactions", rawTxBody(t, trx))
	require.Equal(t, http.StatusOK, code)
	_, _, err := n.pipe.RunBatch()
	require.NoError(t, err)

	addr := genesis.DevAccounts()[0].Address
	code, body := n.get(t, "/accounts/"+addr.String()+"/storage/city")
	require.Equal(t, http.StatusOK, code)
	var res map[string]string
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "aberdeen", res["value"])

	code, _ = n.get(t, "/accounts/"+addr.String()+"/storage/missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWithdrawEndpoint(t *testing.T) {
	n := newTestNode(t)

	trx := devSignedTx(t, 0, 0, tx.NewSetValueKind("k", "v"))
	code, _ := n.post(t, "/transactions", rawTxBody(t, trx))
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, http.StatusOK, n.delete(t, "/transactions/"+trx.Hash().String()))
	assert.Equal(t, http.StatusNotFound, n.delete(t, "/transactions/"+trx.Hash().String()))

	// withdrawn receipt is terminal
	code, body := n.get(t, "/transactions/"+trx.Hash().String()+"/receipt")
	require.Equal(t, http.StatusOK, code)
	var receipt map[string]any
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, "rejected", receipt["status"])
	assert.Equal(t, "withdrawn", receipt["reason"])
}

func TestNodeStatus(t *testing.T) {
	n := newTestNode(t)

	code, body := n.get(t, "/node/status")
	require.Equal(t, http.StatusOK, code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, float64(0), status["ledgerVersion"])
	assert.Equal(t, float64(len(genesis.DevAccounts())), status["accounts"])
	assert.Equal(t, float64(0), status["pooledTxs"])
}
