// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node exposes node level status.
package node

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/keldachain/kelda/api/restutil"
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/txpool"
)

type Node struct {
	ledger *ledger.Ledger
	pool   *txpool.TxPool
}

func New(ldgr *ledger.Ledger, pool *txpool.TxPool) *Node {
	return &Node{
		ledger: ldgr,
		pool:   pool,
	}
}

// Status a point-in-time view of the node.
type Status struct {
	LedgerVersion uint64        `json:"ledgerVersion"`
	LedgerRoot    kelda.Bytes32 `json:"ledgerRoot"`
	Accounts      int           `json:"accounts"`
	PooledTxs     int           `json:"pooledTxs"`
}

func (n *Node) handleStatus(w http.ResponseWriter, _ *http.Request) error {
	snap := n.ledger.Snapshot()
	return restutil.WriteJSON(w, &Status{
		LedgerVersion: snap.Version(),
		LedgerRoot:    snap.Root(),
		Accounts:      snap.Len(),
		PooledTxs:     n.pool.Len(),
	})
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/status").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(n.handleStatus))
}
