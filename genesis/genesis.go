// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the ledger's initial allocation.
package genesis

import (
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/state"
)

// Genesis is the initial ledger allocation plus a display name.
type Genesis struct {
	name  string
	alloc map[kelda.Address]*ledger.AccountRecord
}

// Name returns the network name.
func (g *Genesis) Name() string {
	return g.name
}

// Alloc returns the initial allocation, suitable for ledger.New.
func (g *Genesis) Alloc() map[kelda.Address]*ledger.AccountRecord {
	return g.alloc
}

// NewDevnet creates the development genesis: every dev account is funded
// with the default starting balance.
func NewDevnet() *Genesis {
	alloc := make(map[kelda.Address]*ledger.AccountRecord)
	for _, acc := range DevAccounts() {
		alloc[acc.Address] = &ledger.AccountRecord{
			Account: state.Account{Balance: kelda.InitialBalance},
		}
	}
	return &Genesis{
		name:  "devnet",
		alloc: alloc,
	}
}
