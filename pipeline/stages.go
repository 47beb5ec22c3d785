// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pipeline

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/state"
	"github.com/keldachain/kelda/tx"
	"github.com/keldachain/kelda/txpool"
)

// validateBatch re-derives each tx's origin from its signature and checks
// nonces against the committed snapshot, tracking the expected nonce per
// account within the batch so consecutive nonces from one sender validate
// together. Items failing here carry their terminal reason onward; the
// batch keeps its admission order.
func (p *Pipeline) validateBatch(snap *ledger.Snapshot, entries txpool.Entries) *batch {
	b := &batch{items: make([]*item, 0, len(entries))}
	expected := make(map[kelda.Address]uint64)

	for _, e := range entries {
		it := &item{tx: e.Tx, origin: e.Origin, arrival: e.Arrival}
		b.items = append(b.items, it)

		origin, err := p.resolveOrigin(e.Tx)
		if err != nil || origin != e.Origin {
			it.reject(tx.ReasonInvalidSignature)
			continue
		}

		next, tracked := expected[origin]
		if !tracked {
			if acc, found := snap.GetAccount(origin); found {
				next = acc.Nonce
			}
		}
		if e.Tx.Nonce() != next {
			it.reject(tx.ReasonNonceMismatch)
			continue
		}
		expected[origin] = next + 1
	}
	return b
}

// sequenceBatch fixes the committal order: per sender ascending by nonce,
// senders ordered by the arrival of their earliest tx in the batch. Each
// surviving item gets the next position in the pipeline-wide sequence;
// already-rejected items sink to the end without one.
func (p *Pipeline) sequenceBatch(b *batch) {
	firstArrival := make(map[kelda.Address]uint64)
	for _, it := range b.items {
		if it.rejected {
			continue
		}
		if first, ok := firstArrival[it.origin]; !ok || it.arrival < first {
			firstArrival[it.origin] = it.arrival
		}
	}

	sort.SliceStable(b.items, func(i, j int) bool {
		a, c := b.items[i], b.items[j]
		if a.rejected != c.rejected {
			return !a.rejected
		}
		if a.rejected {
			return false
		}
		if a.origin != c.origin {
			return firstArrival[a.origin] < firstArrival[c.origin]
		}
		return a.tx.Nonce() < c.tx.Nonce()
	})

	for _, it := range b.items {
		if it.rejected {
			continue
		}
		it.seq = p.nextSeq
		p.nextSeq++
	}
}

// executeBatch runs the sequenced items against a working copy of the base
// snapshot. Each tx executes inside its own checkpoint: a failing tx is
// reverted in isolation and leaves no trace, so a later tx from the same
// sender then fails its nonce re-check. Accounts are created lazily with
// the default starting balance on first use as a sender.
func (p *Pipeline) executeBatch(base *ledger.Snapshot, b *batch) *state.Stage {
	st := state.New(base)

	for _, it := range b.items {
		if it.rejected {
			continue
		}
		checkpoint := st.NewCheckpoint()
		if reason := executeOne(st, it); reason != "" {
			st.RevertTo(checkpoint)
			it.reject(reason)
		}
	}
	return st.Stage()
}

func executeOne(st *state.State, it *item) tx.RejectReason {
	origin := it.origin
	if !st.Exists(origin) {
		st.SetBalance(origin, kelda.InitialBalance)
	}
	if st.GetNonce(origin) != it.tx.Nonce() {
		return tx.ReasonNonceMismatch
	}

	kind := it.tx.Kind()
	switch kind.Type() {
	case tx.KindTransfer:
		amount := kind.Amount()
		balance := st.GetBalance(origin)
		if balance < amount {
			return tx.ReasonExecutionError
		}
		recipient := *kind.Recipient()
		st.SetBalance(origin, balance-amount)
		st.SetBalance(recipient, st.GetBalance(recipient)+amount)
		it.output = &tx.Output{Recipient: &recipient, Amount: amount}
	case tx.KindSetValue:
		st.SetStorage(origin, kind.Key(), kind.Value())
		it.output = &tx.Output{Key: kind.Key(), Value: kind.Value()}
	default:
		return tx.ReasonExecutionError
	}

	st.SetNonce(origin, it.tx.Nonce()+1)
	it.gasUsed = kelda.TxGas
	return ""
}

// commitBatch makes the batch's effects durable: the accumulated stage is
// applied to the ledger first, then all receipts land in one atomic write,
// then the txs leave the pool. A batch whose every tx was rejected leaves
// the ledger version untouched.
func (p *Pipeline) commitBatch(stage *state.Stage, b *batch) (*ledger.Snapshot, error) {
	startTime := time.Now()

	snap := p.ledger.Snapshot()
	if !stage.IsEmpty() {
		var err error
		if snap, err = p.ledger.ApplyStage(stage); err != nil {
			return nil, errors.Wrap(err, "apply stage")
		}
	}

	receipts := make(tx.Receipts, 0, len(b.items))
	for _, it := range b.items {
		receipts = append(receipts, it.receipt())
	}
	if err := p.receipts.PutBatch(receipts); err != nil {
		return nil, errors.Wrap(err, "put receipts")
	}
	for _, it := range b.items {
		p.pool.Remove(it.tx.Hash())
	}

	committed, rejected := b.counts()
	metricCommittedCounter().Add(int64(committed))
	metricRejectedCounter().Add(int64(rejected))
	metricVersionGauge().Set(int64(snap.Version()))
	metricCommitDuration().Observe(time.Since(startTime).Milliseconds())

	logger.Info("batch committed",
		"version", snap.Version(),
		"committed", committed,
		"rejected", rejected,
		"elapsed", time.Since(startTime).String(),
	)
	return snap, nil
}
