// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/lvldb"
	"github.com/keldachain/kelda/receiptdb"
	"github.com/keldachain/kelda/tx"
)

func newTestPool(t *testing.T, options Options) (*TxPool, *receiptdb.Store) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	receipts := receiptdb.New(db)
	pool := New(receipts, options)
	t.Cleanup(pool.Close)
	return pool, receipts
}

func defaultOptions() Options {
	return Options{
		Limit:           100,
		LimitPerAccount: 16,
		MaxLifetime:     time.Hour,
	}
}

func newTx(t *testing.T, pk *ecdsa.PrivateKey, nonce uint64) *tx.Transaction {
	trx := new(tx.Builder).
		Nonce(nonce).
		Kind(tx.NewSetValueKind("k", "v")).
		Build()
	signed, err := tx.Sign(trx, pk)
	require.NoError(t, err)
	return signed
}

func TestAddCreatesPendingReceipt(t *testing.T) {
	pool, receipts := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	trx := newTx(t, pk, 0)
	require.NoError(t, pool.Add(trx))

	assert.True(t, pool.Contains(trx.Hash()))
	assert.Equal(t, 1, pool.Len())
	assert.Equal(t, trx.Hash(), pool.Get(trx.Hash()).Hash())

	receipt, err := receipts.Get(trx.Hash())
	require.NoError(t, err)
	assert.Equal(t, tx.StatusPending, receipt.Status)
}

func TestAddDuplicate(t *testing.T) {
	pool, _ := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	trx := newTx(t, pk, 0)
	require.NoError(t, pool.Add(trx))

	err := pool.Add(trx)
	assert.True(t, IsKnownTx(err))
	assert.Equal(t, 1, pool.Len())
}

func TestAddAlreadyProcessed(t *testing.T) {
	pool, receipts := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	trx := newTx(t, pk, 0)
	require.NoError(t, receipts.Put(&tx.Receipt{
		TxHash: trx.Hash(),
		Status: tx.StatusCommitted,
	}))

	err := pool.Add(trx)
	assert.True(t, IsKnownTx(err))
	assert.Equal(t, 0, pool.Len())
}

func TestAddMalformed(t *testing.T) {
	pool, _ := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	unsigned := new(tx.Builder).
		Nonce(0).
		Kind(tx.NewSetValueKind("k", "v")).
		Build()
	assert.True(t, IsBadTx(pool.Add(unsigned)))

	badKind := tx.MustSign(new(tx.Builder).
		Nonce(0).
		Kind(tx.NewSetValueKind("", "v")).
		Build(), pk)
	assert.True(t, IsBadTx(pool.Add(badKind)))
}

func TestAccountQuota(t *testing.T) {
	options := defaultOptions()
	options.LimitPerAccount = 2
	pool, _ := newTestPool(t, options)
	pk, _ := crypto.GenerateKey()

	require.NoError(t, pool.Add(newTx(t, pk, 0)))
	require.NoError(t, pool.Add(newTx(t, pk, 1)))
	err := pool.Add(newTx(t, pk, 2))
	assert.True(t, IsTxRejected(err))
}

func TestPoolFull(t *testing.T) {
	options := defaultOptions()
	options.Limit = 1
	pool, _ := newTestPool(t, options)
	pk1, _ := crypto.GenerateKey()
	pk2, _ := crypto.GenerateKey()

	require.NoError(t, pool.Add(newTx(t, pk1, 0)))
	assert.True(t, IsTxRejected(pool.Add(newTx(t, pk2, 0))))
}

func TestClaimOrdering(t *testing.T) {
	pool, _ := newTestPool(t, defaultOptions())
	pkA, _ := crypto.GenerateKey()
	pkB, _ := crypto.GenerateKey()

	a1 := newTx(t, pkA, 1)
	b0 := newTx(t, pkB, 0)
	a0 := newTx(t, pkA, 0)

	// A's first arrival precedes B's, nonces arrive out of order
	require.NoError(t, pool.Add(a1))
	require.NoError(t, pool.Add(b0))
	require.NoError(t, pool.Add(a0))

	entries := pool.Claim(10)
	require.Len(t, entries, 3)

	// per-account nonce ascending, account groups by earliest arrival
	assert.Equal(t, a0.Hash(), entries[0].Tx.Hash())
	assert.Equal(t, uint64(0), entries[0].Tx.Nonce())
	assert.Equal(t, a1.Hash(), entries[1].Tx.Hash())
	assert.Equal(t, b0.Hash(), entries[2].Tx.Hash())

	// claimed entries can never be claimed twice
	assert.Empty(t, pool.Claim(10))

	// but they stay pooled until removed
	assert.Equal(t, 3, pool.Len())
	assert.True(t, pool.Remove(a0.Hash()))
	assert.Equal(t, 2, pool.Len())
}

func TestClaimOrderingSortsNonces(t *testing.T) {
	pool, _ := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	t2 := newTx(t, pk, 2)
	t0 := newTx(t, pk, 0)
	t1 := newTx(t, pk, 1)
	require.NoError(t, pool.Add(t2))
	require.NoError(t, pool.Add(t0))
	require.NoError(t, pool.Add(t1))

	entries := pool.Claim(10)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(0), entries[0].Tx.Nonce())
	assert.Equal(t, uint64(1), entries[1].Tx.Nonce())
	assert.Equal(t, uint64(2), entries[2].Tx.Nonce())
}

func TestPendingDoesNotClaim(t *testing.T) {
	pool, _ := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	require.NoError(t, pool.Add(newTx(t, pk, 0)))

	assert.Len(t, pool.Pending(10), 1)
	assert.Len(t, pool.Pending(10), 1)
	assert.Len(t, pool.Claim(10), 1)
	assert.Empty(t, pool.Pending(10))
}

func TestWithdraw(t *testing.T) {
	pool, receipts := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	trx := newTx(t, pk, 0)
	require.NoError(t, pool.Add(trx))
	require.NoError(t, pool.Withdraw(trx.Hash()))

	assert.False(t, pool.Contains(trx.Hash()))
	receipt, err := receipts.Get(trx.Hash())
	require.NoError(t, err)
	assert.Equal(t, tx.StatusRejected, receipt.Status)
	assert.Equal(t, tx.ReasonWithdrawn, receipt.Reason)

	assert.True(t, IsNotFound(pool.Withdraw(trx.Hash())))
	assert.True(t, IsNotFound(pool.Withdraw(kelda.Bytes32{})))
}

func TestWithdrawClaimed(t *testing.T) {
	pool, _ := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	trx := newTx(t, pk, 0)
	require.NoError(t, pool.Add(trx))
	require.Len(t, pool.Claim(10), 1)

	assert.True(t, IsClaimed(pool.Withdraw(trx.Hash())))
	assert.True(t, pool.Contains(trx.Hash()))
}

func TestEvictExpired(t *testing.T) {
	options := defaultOptions()
	options.MaxLifetime = time.Nanosecond
	pool, receipts := newTestPool(t, options)
	pk, _ := crypto.GenerateKey()

	trx := newTx(t, pk, 0)
	require.NoError(t, pool.Add(trx))

	time.Sleep(time.Millisecond)
	pool.evictExpired()

	assert.Equal(t, 0, pool.Len())
	receipt, err := receipts.Get(trx.Hash())
	require.NoError(t, err)
	assert.Equal(t, tx.ReasonExpired, receipt.Reason)
}

func TestEvictSkipsClaimed(t *testing.T) {
	options := defaultOptions()
	options.MaxLifetime = time.Nanosecond
	pool, receipts := newTestPool(t, options)
	pk, _ := crypto.GenerateKey()

	trx := newTx(t, pk, 0)
	require.NoError(t, pool.Add(trx))
	require.Len(t, pool.Claim(10), 1)

	time.Sleep(time.Millisecond)
	pool.evictExpired()

	// a claimed tx belongs to the pipeline until removed at commit
	assert.True(t, pool.Contains(trx.Hash()))
	receipt, err := receipts.Get(trx.Hash())
	require.NoError(t, err)
	assert.Equal(t, tx.StatusPending, receipt.Status)
}

func TestClaimEvictExclusive(t *testing.T) {
	options := defaultOptions()
	options.Limit = 1000
	options.LimitPerAccount = 1
	options.MaxLifetime = time.Nanosecond
	pool, receipts := newTestPool(t, options)

	var txs []*tx.Transaction
	for i := 0; i < 40; i++ {
		pk, _ := crypto.GenerateKey()
		trx := newTx(t, pk, 0)
		require.NoError(t, pool.Add(trx))
		txs = append(txs, trx)
	}

	// race claiming against eviction over a pool of instantly expired txs
	claimed := make(chan Entries, 20)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				claimed <- pool.Claim(2)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.evictExpired()
		}()
	}
	wg.Wait()
	close(claimed)

	claimedSet := make(map[kelda.Bytes32]bool)
	for entries := range claimed {
		for _, entry := range entries {
			claimedSet[entry.Tx.Hash()] = true
		}
	}

	// every tx ends up on exactly one side: handed to the pipeline and
	// still pooled, or evicted with a terminal receipt, never both
	for _, trx := range txs {
		receipt, err := receipts.Get(trx.Hash())
		require.NoError(t, err)
		if claimedSet[trx.Hash()] {
			assert.True(t, pool.Contains(trx.Hash()))
			assert.Equal(t, tx.StatusPending, receipt.Status)
		} else {
			assert.False(t, pool.Contains(trx.Hash()))
			assert.Equal(t, tx.ReasonExpired, receipt.Reason)
		}
	}
}

func TestDump(t *testing.T) {
	pool, _ := newTestPool(t, defaultOptions())
	pk, _ := crypto.GenerateKey()

	require.NoError(t, pool.Add(newTx(t, pk, 0)))
	require.NoError(t, pool.Add(newTx(t, pk, 1)))
	assert.Len(t, pool.Dump(), 2)
}
