// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger maintains the committed, versioned account state.
// It is the sole source of truth for reads: readers always observe the
// most recent fully committed version, never a partially-applied one.
package ledger

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/keldachain/kelda/co"
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/kv"
	"github.com/keldachain/kelda/state"
)

// Ledger holds the current committed snapshot behind an atomic pointer.
// Single writer (commitment), multi reader.
type Ledger struct {
	store   kv.GetPutter // nil disables checkpointing
	current atomic.Value // *Snapshot
	tick    co.Signal

	// serializes writers; readers never take it
	commitMu sync.Mutex
}

// New creates a ledger whose version 0 holds the given genesis records.
// genesis may be nil for an empty ledger.
func New(store kv.GetPutter, genesis map[kelda.Address]*AccountRecord) *Ledger {
	if genesis == nil {
		genesis = make(map[kelda.Address]*AccountRecord)
	}
	snap := &Snapshot{
		version:  0,
		accounts: genesis,
	}
	snap.root = rehash(kelda.Bytes32{}, snap.accounts, nil)

	l := &Ledger{store: store}
	l.current.Store(snap)
	return l
}

// Load restores the last checkpointed snapshot from the store.
// The second return value reports whether a checkpoint was found.
func Load(store kv.GetPutter) (*Ledger, bool, error) {
	data, err := store.Get(checkpointKey)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "load checkpoint")
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, false, errors.Wrap(err, "decode checkpoint")
	}

	l := &Ledger{store: store}
	l.current.Store(snap)
	return l, true, nil
}

// Snapshot returns the current committed snapshot.
func (l *Ledger) Snapshot() *Snapshot {
	return l.current.Load().(*Snapshot)
}

// CurrentNonce returns the committed nonce of the given account.
// Never-committed accounts read as nonce 0.
func (l *Ledger) CurrentNonce(addr kelda.Address) uint64 {
	acc, _ := l.Snapshot().GetAccount(addr)
	return acc.Nonce
}

// GetValue returns the committed value under key in addr's namespace.
func (l *Ledger) GetValue(addr kelda.Address, key string) (string, bool) {
	return l.Snapshot().GetStorage(addr, key)
}

// ApplyStage merges the stage into a new committed version and publishes
// it atomically. It is the commitment-only entry point: either the whole
// stage becomes visible as one version bump, or none of it.
func (l *Ledger) ApplyStage(st *state.Stage) (*Snapshot, error) {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()

	cur := l.Snapshot()

	accounts := make(map[kelda.Address]*AccountRecord, len(cur.accounts)+len(st.Diffs))
	for addr, rec := range cur.accounts {
		accounts[addr] = rec
	}
	for addr, diff := range st.Diffs {
		accounts[addr] = mergeDiff(cur.accounts[addr], diff)
	}

	next := &Snapshot{
		version:  cur.version + 1,
		root:     rehash(cur.root, accounts, st),
		accounts: accounts,
	}

	if l.store != nil {
		if err := l.store.Put(checkpointKey, encodeSnapshot(next)); err != nil {
			return nil, errors.Wrap(err, "persist checkpoint")
		}
	}

	// the version becomes visible only after it is fully built
	l.current.Store(next)
	l.tick.Broadcast()
	return next, nil
}

// NewTicker creates a signal Waiter to receive event that the committed
// version advanced.
func (l *Ledger) NewTicker() co.Waiter {
	return l.tick.NewWaiter()
}

// mergeDiff builds the committed record of an account from its previous
// record and the staged diff. The previous record is left untouched.
func mergeDiff(prev *AccountRecord, diff *state.Diff) *AccountRecord {
	rec := &AccountRecord{Account: diff.Account}
	if prev != nil || len(diff.Storage) > 0 {
		size := len(diff.Storage)
		if prev != nil {
			size += len(prev.Storage)
		}
		rec.Storage = make(map[string]string, size)
		if prev != nil {
			for k, v := range prev.Storage {
				rec.Storage[k] = v
			}
		}
		for k, v := range diff.Storage {
			rec.Storage[k] = v
		}
	}
	return rec
}
