// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package txpool maintains the transactions the node has accepted but not
// yet committed. Submission is idempotent by tx hash and admission order is
// preserved for sequencing.
package txpool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/inconshreveable/log15"

	"github.com/keldachain/kelda/co"
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/tx"
)

var logger = log15.New("pkg", "txpool")

// Options options for tx pool.
type Options struct {
	Limit           int
	LimitPerAccount int
	MaxLifetime     time.Duration
}

// TxEvent will be posted when a tx is accepted into the pool.
type TxEvent struct {
	Tx     *tx.Transaction
	Origin kelda.Address
}

// Receipter is the receipt store surface the pool needs: dedup against
// already-processed hashes and recording of pool-side outcomes.
type Receipter interface {
	Has(hash kelda.Bytes32) bool
	Put(receipt *tx.Receipt) error
}

// TxPool maintains unprocessed transactions.
type TxPool struct {
	options  Options
	receipts Receipter

	all     *txObjectMap
	arrival uint64 // monotonic admission counter

	ctx    context.Context
	cancel func()
	txFeed event.Feed
	scope  event.SubscriptionScope
	goes   co.Goes
}

// New create a new TxPool instance.
// Close is required to be called at end.
func New(receipts Receipter, options Options) *TxPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &TxPool{
		options:  options,
		receipts: receipts,
		all:      newTxObjectMap(),
		ctx:      ctx,
		cancel:   cancel,
	}

	pool.goes.Go(pool.housekeeping)
	return pool
}

func (p *TxPool) housekeeping() {
	logger.Debug("enter housekeeping")
	defer logger.Debug("leave housekeeping")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.evictExpired()
		}
	}
}

func (p *TxPool) evictExpired() {
	evicted := p.all.EvictExpired(p.options.MaxLifetime)
	for _, txObj := range evicted {
		receipt := &tx.Receipt{
			TxHash: txObj.Hash(),
			Status: tx.StatusRejected,
			Reason: tx.ReasonExpired,
		}
		if err := p.receipts.Put(receipt); err != nil {
			logger.Warn("failed to record eviction", "tx", txObj.Hash(), "err", err)
		}
	}
	if len(evicted) > 0 {
		logger.Debug("evicted expired txs", "count", len(evicted))
		metricEvictedCounter().Add(int64(len(evicted)))
		metricPoolGauge().Set(int64(p.all.Len()))
	}
}

// Close cleanup inner go routines.
func (p *TxPool) Close() {
	p.cancel()
	p.scope.Close()
	p.goes.Wait()
	logger.Debug("closed")
}

// SubscribeTxEvent receivers will receive a tx
func (p *TxPool) SubscribeTxEvent(ch chan *TxEvent) event.Subscription {
	return p.scope.Track(p.txFeed.Subscribe(ch))
}

// Add adds a new tx into the pool. Submission is idempotent: resubmitting a
// hash already pending or already processed fails with a known-tx error and
// changes nothing.
func (p *TxPool) Add(newTx *tx.Transaction) error {
	if err := newTx.ValidateBasics(); err != nil {
		return badTxError{err.Error()}
	}

	txObj, err := resolveTx(newTx)
	if err != nil {
		return badTxError{"unrecoverable origin: " + err.Error()}
	}

	hash := newTx.Hash()
	if p.all.ContainsHash(hash) {
		return knownTxError{hash.String()}
	}
	if p.receipts.Has(hash) {
		return knownTxError{hash.String()}
	}

	if p.all.Len() >= p.options.Limit {
		return txRejectedError{"pool is full"}
	}

	txObj.arrival = atomic.AddUint64(&p.arrival, 1)
	if err := p.all.Add(txObj, p.options.LimitPerAccount); err != nil {
		return err
	}

	receipt := &tx.Receipt{
		TxHash: hash,
		Status: tx.StatusPending,
	}
	if err := p.receipts.Put(receipt); err != nil {
		logger.Warn("failed to record pending receipt", "tx", hash, "err", err)
	}

	logger.Debug("tx accepted", "tx", hash, "origin", txObj.Origin())
	metricPoolGauge().Set(int64(p.all.Len()))
	p.txFeed.Send(&TxEvent{Tx: newTx, Origin: txObj.Origin()})
	return nil
}

// Get returns the pooled tx with the given hash, or nil.
func (p *TxPool) Get(txHash kelda.Bytes32) *tx.Transaction {
	if txObj := p.all.GetByHash(txHash); txObj != nil {
		return txObj.Transaction
	}
	return nil
}

// Contains reports whether the tx with the given hash is pooled.
func (p *TxPool) Contains(txHash kelda.Bytes32) bool {
	return p.all.ContainsHash(txHash)
}

// Len returns the number of pooled txs.
func (p *TxPool) Len() int {
	return p.all.Len()
}

// Dump returns all pooled txs, unordered.
func (p *TxPool) Dump() tx.Transactions {
	txObjs := p.all.ToTxObjects()
	txs := make(tx.Transactions, 0, len(txObjs))
	for _, txObj := range txObjs {
		txs = append(txs, txObj.Transaction)
	}
	return txs
}

// Pending returns up to max unclaimed txs in candidate order without
// claiming them.
func (p *TxPool) Pending(max int) Entries {
	txObjs := p.all.Eligible(max, false)
	entries := make(Entries, 0, len(txObjs))
	for _, txObj := range txObjs {
		entries = append(entries, txObj.asEntry())
	}
	return entries
}

// Claim hands up to max txs to the pipeline and marks them claimed.
// Claimed txs stay in the pool until Remove, but can no longer be
// withdrawn or evicted.
func (p *TxPool) Claim(max int) Entries {
	txObjs := p.all.Eligible(max, true)
	entries := make(Entries, 0, len(txObjs))
	for _, txObj := range txObjs {
		entries = append(entries, txObj.asEntry())
	}
	if len(entries) > 0 {
		logger.Debug("claimed txs", "count", len(entries))
	}
	return entries
}

// Remove removes the tx with the given hash, typically after its receipt
// turned terminal.
func (p *TxPool) Remove(txHash kelda.Bytes32) bool {
	if p.all.RemoveByHash(txHash) {
		metricPoolGauge().Set(int64(p.all.Len()))
		return true
	}
	return false
}

// Withdraw removes an unclaimed tx at the sender's request and records a
// terminal rejected receipt for it. Claimed txs are past the point of no
// return; withdrawing them fails with an error checkable via IsClaimed.
func (p *TxPool) Withdraw(txHash kelda.Bytes32) error {
	if err := p.all.WithdrawByHash(txHash); err != nil {
		return err
	}

	receipt := &tx.Receipt{
		TxHash: txHash,
		Status: tx.StatusRejected,
		Reason: tx.ReasonWithdrawn,
	}
	if err := p.receipts.Put(receipt); err != nil {
		logger.Warn("failed to record withdrawal", "tx", txHash, "err", err)
	}
	logger.Debug("tx withdrawn", "tx", txHash)
	metricPoolGauge().Set(int64(p.all.Len()))
	return nil
}
