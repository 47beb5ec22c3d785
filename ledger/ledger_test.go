// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/lvldb"
	"github.com/keldachain/kelda/state"
)

var (
	alice = kelda.BytesToAddress([]byte("alice"))
	bob   = kelda.BytesToAddress([]byte("bob"))
)

func newTestLedger(t *testing.T) (*ledger.Ledger, *lvldb.LevelDB) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)

	l := ledger.New(store, map[kelda.Address]*ledger.AccountRecord{
		alice: {Account: state.Account{Balance: 1000}},
	})
	return l, store
}

func TestGenesisSnapshot(t *testing.T) {
	l, _ := newTestLedger(t)

	snap := l.Snapshot()
	assert.Equal(t, uint64(0), snap.Version())
	assert.False(t, snap.Root().IsZero())
	assert.Equal(t, 1, snap.Len())

	acc, found := snap.GetAccount(alice)
	assert.True(t, found)
	assert.Equal(t, uint64(1000), acc.Balance)

	_, found = snap.GetAccount(bob)
	assert.False(t, found)
}

func applyTransfer(t *testing.T, l *ledger.Ledger, amount uint64) *ledger.Snapshot {
	st := state.New(l.Snapshot())
	st.SetBalance(alice, st.GetBalance(alice)-amount)
	st.SetNonce(alice, st.GetNonce(alice)+1)
	st.SetBalance(bob, st.GetBalance(bob)+amount)

	snap, err := l.ApplyStage(st.Stage())
	require.NoError(t, err)
	return snap
}

func TestApplyStage(t *testing.T) {
	l, _ := newTestLedger(t)
	before := l.Snapshot()

	snap := applyTransfer(t, l, 400)

	assert.Equal(t, uint64(1), snap.Version())
	assert.NotEqual(t, before.Root(), snap.Root())

	acc, _ := snap.GetAccount(alice)
	assert.Equal(t, uint64(600), acc.Balance)
	assert.Equal(t, uint64(1), acc.Nonce)
	acc, found := snap.GetAccount(bob)
	assert.True(t, found)
	assert.Equal(t, uint64(400), acc.Balance)

	// the old snapshot must be untouched
	acc, _ = before.GetAccount(alice)
	assert.Equal(t, uint64(1000), acc.Balance)
}

func TestTickerOnApply(t *testing.T) {
	l, _ := newTestLedger(t)

	waiter := l.NewTicker()
	select {
	case <-waiter.C():
		t.Fatal("ticker fired before any commit")
	default:
	}

	applyTransfer(t, l, 100)

	select {
	case <-waiter.C():
	default:
		t.Fatal("ticker did not fire on commit")
	}

	// readers through the ledger now observe the new version
	assert.Equal(t, uint64(1), l.Snapshot().Version())
	assert.Equal(t, uint64(1), l.CurrentNonce(alice))
}

func TestStorageMerge(t *testing.T) {
	l, _ := newTestLedger(t)

	st := state.New(l.Snapshot())
	st.SetStorage(alice, "a", "1")
	st.SetStorage(alice, "b", "2")
	_, err := l.ApplyStage(st.Stage())
	require.NoError(t, err)

	st = state.New(l.Snapshot())
	st.SetStorage(alice, "b", "3")
	_, err = l.ApplyStage(st.Stage())
	require.NoError(t, err)

	v, ok := l.GetValue(alice, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	v, _ = l.GetValue(alice, "b")
	assert.Equal(t, "3", v)
	_, ok = l.GetValue(alice, "c")
	assert.False(t, ok)
}

func TestRootChains(t *testing.T) {
	l1, _ := newTestLedger(t)
	l2, _ := newTestLedger(t)

	// identical histories produce identical roots
	s1 := applyTransfer(t, l1, 100)
	s2 := applyTransfer(t, l2, 100)
	assert.Equal(t, s1.Root(), s2.Root())

	// diverging histories do not
	s1 = applyTransfer(t, l1, 1)
	s2 = applyTransfer(t, l2, 2)
	assert.NotEqual(t, s1.Root(), s2.Root())
}

func TestPersistAndLoad(t *testing.T) {
	l, store := newTestLedger(t)
	applyTransfer(t, l, 250)

	loaded, found, err := ledger.Load(store)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, l.Snapshot().Version(), loaded.Snapshot().Version())
	assert.Equal(t, l.Snapshot().Root(), loaded.Snapshot().Root())

	acc, _ := loaded.Snapshot().GetAccount(bob)
	assert.Equal(t, uint64(250), acc.Balance)
}

func TestLoadEmptyStore(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)

	_, found, err := ledger.Load(store)
	require.NoError(t, err)
	assert.False(t, found)
}
