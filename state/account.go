// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/keldachain/kelda/kelda"
)

// Account is the flat part of an account record.
// The nonce only increases; each committed transaction consumes exactly
// the account's current nonce, then increments it.
type Account struct {
	Nonce   uint64
	Balance uint64
}

// IsEmpty reports whether the account is indistinguishable from a
// never-referenced one.
func (a Account) IsEmpty() bool {
	return a == Account{}
}

// Reader provides read access to committed account records.
// Implementations must serve a fully committed view, never a
// partially-applied one.
type Reader interface {
	// GetAccount returns the account for addr, or false if never committed.
	GetAccount(addr kelda.Address) (Account, bool)
	// GetStorage returns the value stored under key in addr's namespace.
	GetStorage(addr kelda.Address, key string) (string, bool)
}
