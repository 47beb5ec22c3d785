// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/keldachain/kelda/kelda"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// State is a working copy of account records over a committed reader.
// Writes stay in a journal until staged; nothing here is visible to
// ledger readers until commitment merges the stage.
type State struct {
	reader Reader
	jn     *journal
}

// New creates a working copy over the given committed reader.
// The state starts with one open checkpoint.
func New(reader Reader) *State {
	s := &State{reader: reader}
	s.jn = newJournal(s.readerGetter)
	s.jn.push()
	return s
}

// readerGetter adapts the committed reader as journal source.
func (s *State) readerGetter(key any) (any, bool) {
	switch k := key.(type) {
	case kelda.Address:
		acc, _ := s.reader.GetAccount(k)
		return acc, true
	case storageKey:
		v, ok := s.reader.GetStorage(k.addr, k.key)
		return storageValue{v, ok}, true
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) getAccount(addr kelda.Address) Account {
	v, _ := s.jn.get(addr)
	return v.(Account)
}

// Exists returns whether an account was ever committed or touched.
// See Account.IsEmpty()
func (s *State) Exists(addr kelda.Address) bool {
	if _, ok := s.reader.GetAccount(addr); ok {
		return true
	}
	return !s.getAccount(addr).IsEmpty()
}

// GetNonce returns the nonce of the given account.
func (s *State) GetNonce(addr kelda.Address) uint64 {
	return s.getAccount(addr).Nonce
}

// SetNonce sets the nonce of the given account.
func (s *State) SetNonce(addr kelda.Address, nonce uint64) {
	cpy := s.getAccount(addr)
	cpy.Nonce = nonce
	s.jn.put(addr, cpy)
}

// GetBalance returns balance of the given account.
func (s *State) GetBalance(addr kelda.Address) uint64 {
	return s.getAccount(addr).Balance
}

// SetBalance sets balance of the given account.
func (s *State) SetBalance(addr kelda.Address, balance uint64) {
	cpy := s.getAccount(addr)
	cpy.Balance = balance
	s.jn.put(addr, cpy)
}

// GetStorage returns the value under key in addr's namespace.
func (s *State) GetStorage(addr kelda.Address, key string) (string, bool) {
	v, _ := s.jn.get(storageKey{addr, key})
	sv := v.(storageValue)
	return sv.value, sv.exists
}

// SetStorage writes key/value into addr's namespace.
func (s *State) SetStorage(addr kelda.Address, key, value string) {
	s.jn.put(storageKey{addr, key}, storageValue{value, true})
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.jn.push()
}

// RevertTo reverts to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.jn.popTo(revision)
}

// Stage collects all journaled changes into per-account diffs ready for
// atomic commitment.
func (s *State) Stage() *Stage {
	diffs := make(map[kelda.Address]*Diff)

	getDiff := func(addr kelda.Address) *Diff {
		if d, ok := diffs[addr]; ok {
			return d
		}
		acc, _ := s.reader.GetAccount(addr)
		d := &Diff{Account: acc}
		diffs[addr] = d
		return d
	}

	s.jn.walk(func(key, value any) bool {
		switch k := key.(type) {
		case kelda.Address:
			getDiff(k).Account = value.(Account)
		case storageKey:
			d := getDiff(k.addr)
			if d.Storage == nil {
				d.Storage = make(map[string]string)
			}
			d.Storage[k.key] = value.(storageValue).value
		}
		return true
	})

	return &Stage{Diffs: diffs}
}

type (
	storageKey struct {
		addr kelda.Address
		key  string
	}
	storageValue struct {
		value  string
		exists bool
	}
)
