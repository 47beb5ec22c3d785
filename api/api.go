// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the REST surface of the node.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/keldachain/kelda/api/accounts"
	"github.com/keldachain/kelda/api/node"
	"github.com/keldachain/kelda/api/transactions"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/receiptdb"
	"github.com/keldachain/kelda/txpool"
)

type Options struct {
	AllowedOrigins string
	EnableMetrics  bool
}

// New return api router
func New(
	ldgr *ledger.Ledger,
	txPool *txpool.TxPool,
	receipts *receiptdb.Store,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	transactions.New(txPool, receipts).
		Mount(router, "/transactions")
	accounts.New(ldgr).
		Mount(router, "/accounts")
	node.New(ldgr, txPool).
		Mount(router, "/node")

	if opts.EnableMetrics {
		router.Use(metricsHandler)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP
}
