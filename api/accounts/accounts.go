// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accounts exposes committed account state: nonce, balance and
// stored key/value pairs. Reads always observe a fully committed ledger
// version.
package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/keldachain/kelda/api/restutil"
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
)

type Accounts struct {
	ledger *ledger.Ledger
}

func New(ldgr *ledger.Ledger) *Accounts {
	return &Accounts{
		ledger: ldgr,
	}
}

// Account JSON view of an account's committed state. Accounts the ledger
// never saw read as zero.
type Account struct {
	Nonce   uint64 `json:"nonce"`
	Balance uint64 `json:"balance"`
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := kelda.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	acc, _ := a.ledger.Snapshot().GetAccount(*addr)
	return restutil.WriteJSON(w, &Account{
		Nonce:   acc.Nonce,
		Balance: acc.Balance,
	})
}

func (a *Accounts) handleGetStorage(w http.ResponseWriter, req *http.Request) error {
	vars := mux.Vars(req)
	addr, err := kelda.ParseAddress(vars["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	key := vars["key"]
	value, found := a.ledger.GetValue(*addr, key)
	if !found {
		return restutil.NotFound(errors.New("key not found"))
	}
	return restutil.WriteJSON(w, map[string]string{
		"value": value,
	})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/storage/{key}").Methods("GET").HandlerFunc(restutil.WrapHandlerFunc(a.handleGetStorage))
}
