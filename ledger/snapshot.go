// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/state"
)

// AccountRecord is the committed form of an account.
// Records are immutable once part of a snapshot.
type AccountRecord struct {
	Account state.Account
	Storage map[string]string
}

// Snapshot is one committed ledger version. Immutable.
type Snapshot struct {
	version  uint64
	root     kelda.Bytes32
	accounts map[kelda.Address]*AccountRecord
}

var _ state.Reader = (*Snapshot)(nil)

// Version returns the commit sequence number of this snapshot.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Root returns the state root of this snapshot.
func (s *Snapshot) Root() kelda.Bytes32 {
	return s.root
}

// Len returns the number of committed accounts.
func (s *Snapshot) Len() int {
	return len(s.accounts)
}

// GetAccount implements state.Reader.
func (s *Snapshot) GetAccount(addr kelda.Address) (state.Account, bool) {
	rec, ok := s.accounts[addr]
	if !ok {
		return state.Account{}, false
	}
	return rec.Account, true
}

// GetStorage implements state.Reader.
func (s *Snapshot) GetStorage(addr kelda.Address, key string) (string, bool) {
	rec, ok := s.accounts[addr]
	if !ok {
		return "", false
	}
	v, ok := rec.Storage[key]
	return v, ok
}
