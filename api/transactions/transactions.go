// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package transactions exposes tx submission, withdrawal and receipt lookup.
package transactions

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/keldachain/kelda/api/restutil"
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/receiptdb"
	"github.com/keldachain/kelda/tx"
	"github.com/keldachain/kelda/txpool"
)

type Transactions struct {
	pool     *txpool.TxPool
	receipts *receiptdb.Store
}

func New(pool *txpool.TxPool, receipts *receiptdb.Store) *Transactions {
	return &Transactions{
		pool:     pool,
		receipts: receipts,
	}
}

func (t *Transactions) sendTx(trx *tx.Transaction) (kelda.Bytes32, error) {
	if err := t.pool.Add(trx); err != nil {
		return kelda.Bytes32{}, err
	}
	return trx.Hash(), nil
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var raw *RawTx
	if err := restutil.ParseJSON(req.Body, &raw); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	trx, err := raw.decode()
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "raw"))
	}

	hash, err := t.sendTx(trx)
	if err != nil {
		if txpool.IsBadTx(err) {
			return restutil.BadRequest(err)
		}
		if txpool.IsKnownTx(err) {
			return restutil.HTTPError(err, http.StatusConflict)
		}
		if txpool.IsTxRejected(err) {
			return restutil.Forbidden(err)
		}
		return err
	}
	return restutil.WriteJSON(w, map[string]string{
		"hash": hash.String(),
	})
}

func (t *Transactions) handleGetReceipt(w http.ResponseWriter, req *http.Request) error {
	hash, err := kelda.ParseBytes32(mux.Vars(req)["hash"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "hash"))
	}
	receipt, err := t.receipts.Get(hash)
	if err != nil {
		if receiptdb.IsNotFound(err) {
			return restutil.NotFound(err)
		}
		return err
	}
	return restutil.WriteJSON(w, convertReceipt(receipt))
}

func (t *Transactions) handleWithdrawTransaction(w http.ResponseWriter, req *http.Request) error {
	hash, err := kelda.ParseBytes32(mux.Vars(req)["hash"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "hash"))
	}
	if err := t.pool.Withdraw(hash); err != nil {
		if txpool.IsNotFound(err) {
			return restutil.NotFound(err)
		}
		if txpool.IsClaimed(err) {
			return restutil.Forbidden(err)
		}
		return err
	}
	return restutil.WriteJSON(w, map[string]string{
		"hash": hash.String(),
	})
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods("POST").HandlerFunc(restutil.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/{hash}").Methods("DELETE").HandlerFunc(restutil.WrapHandlerFunc(t.handleWithdrawTransaction))
	sub.Path("/{hash}/receipt").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(t.handleGetReceipt))
}
