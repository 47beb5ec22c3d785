// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pipeline drives claimed transactions through validation,
// sequencing, execution and commitment. Stages run as separate goroutines
// connected by bounded channels; commitment hands the freshly committed
// snapshot back to execution, so execution always starts from the latest
// committed version while earlier stages work one batch ahead.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/inconshreveable/log15"

	"github.com/keldachain/kelda/co"
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/receiptdb"
	"github.com/keldachain/kelda/state"
	"github.com/keldachain/kelda/tx"
	"github.com/keldachain/kelda/txpool"
)

var logger = log15.New("pkg", "pipeline")

// Options options for the pipeline.
type Options struct {
	// BatchSize caps how many txs one claim takes from the pool.
	BatchSize int
	// Interval is the claim cadence in interval mode.
	Interval time.Duration
}

// Pipeline coordinates the stages over a pool, ledger and receipt store.
type Pipeline struct {
	pool     *txpool.TxPool
	ledger   *ledger.Ledger
	receipts *receiptdb.Store
	options  Options

	// swapped out in tests to force signature failures
	resolveOrigin func(*tx.Transaction) (kelda.Address, error)

	nextSeq uint64
	runMu   sync.Mutex
}

// New creates a pipeline. Either Run or RunBatch drives it, never both.
func New(pool *txpool.TxPool, ldgr *ledger.Ledger, receipts *receiptdb.Store, options Options) *Pipeline {
	if options.BatchSize <= 0 {
		options.BatchSize = kelda.MaxBatchSize
	}
	if options.Interval <= 0 {
		options.Interval = time.Duration(kelda.BlockInterval) * time.Second
	}
	return &Pipeline{
		pool:     pool,
		ledger:   ldgr,
		receipts: receipts,
		options:  options,
		resolveOrigin: func(trx *tx.Transaction) (kelda.Address, error) {
			return trx.Origin()
		},
	}
}

type executed struct {
	batch *batch
	stage *state.Stage
}

// Run claims and processes batches at the configured interval until ctx is
// cancelled. In-flight batches are drained before it returns.
func (p *Pipeline) Run(ctx context.Context) {
	claimedCh := make(chan txpool.Entries, 1)
	validatedCh := make(chan *batch, 1)
	sequencedCh := make(chan *batch, 1)
	executedCh := make(chan *executed, 1)

	// commitment hands the committed snapshot back to execution through
	// this baton, bounding how far execution can run ahead of commit.
	baseCh := make(chan *ledger.Snapshot, 1)
	baseCh <- p.ledger.Snapshot()

	var goes co.Goes
	goes.Go(func() {
		defer close(claimedCh)
		p.claimLoop(ctx, claimedCh)
	})
	goes.Go(func() {
		defer close(validatedCh)
		for entries := range claimedCh {
			validatedCh <- p.validateBatch(p.ledger.Snapshot(), entries)
		}
	})
	goes.Go(func() {
		defer close(sequencedCh)
		for b := range validatedCh {
			p.sequenceBatch(b)
			sequencedCh <- b
		}
	})
	goes.Go(func() {
		defer close(executedCh)
		for b := range sequencedCh {
			base := <-baseCh
			executedCh <- &executed{batch: b, stage: p.executeBatch(base, b)}
		}
	})
	goes.Go(func() {
		for e := range executedCh {
			snap, err := p.commitBatch(e.stage, e.batch)
			if err != nil {
				logger.Error("batch commit failed", "err", err)
				snap = p.ledger.Snapshot()
			}
			baseCh <- snap
		}
	})
	goes.Wait()
}

func (p *Pipeline) claimLoop(ctx context.Context, claimedCh chan<- txpool.Entries) {
	ticker := time.NewTicker(p.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries := p.pool.Claim(p.options.BatchSize)
			if len(entries) == 0 {
				continue
			}
			select {
			case claimedCh <- entries:
			case <-ctx.Done():
				return
			}
		}
	}
}

// RunBatch claims one batch and drives it through all stages synchronously.
// It backs on-demand mode and returns the resulting snapshot along with how
// many txs were claimed.
func (p *Pipeline) RunBatch() (*ledger.Snapshot, int, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	entries := p.pool.Claim(p.options.BatchSize)
	if len(entries) == 0 {
		return p.ledger.Snapshot(), 0, nil
	}

	b := p.validateBatch(p.ledger.Snapshot(), entries)
	p.sequenceBatch(b)
	stage := p.executeBatch(p.ledger.Snapshot(), b)
	snap, err := p.commitBatch(stage, b)
	if err != nil {
		return nil, len(entries), err
	}
	return snap, len(entries), nil
}
