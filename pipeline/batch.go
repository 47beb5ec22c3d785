// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pipeline

import (
	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/tx"
)

// item tracks one claimed tx through the stages.
type item struct {
	tx      *tx.Transaction
	origin  kelda.Address
	arrival uint64

	rejected bool
	reason   tx.RejectReason
	seq      uint64
	gasUsed  uint64
	output   *tx.Output
}

func (it *item) reject(reason tx.RejectReason) {
	it.rejected = true
	it.reason = reason
}

func (it *item) receipt() *tx.Receipt {
	if it.rejected {
		return &tx.Receipt{
			TxHash: it.tx.Hash(),
			Status: tx.StatusRejected,
			Reason: it.reason,
			Seq:    it.seq,
		}
	}
	return &tx.Receipt{
		TxHash:  it.tx.Hash(),
		Status:  tx.StatusCommitted,
		Seq:     it.seq,
		GasUsed: it.gasUsed,
		Output:  it.output,
	}
}

// batch is one claim's worth of items moving through the stages together.
type batch struct {
	items []*item
}

func (b *batch) counts() (committed, rejected int) {
	for _, it := range b.items {
		if it.rejected {
			rejected++
		} else {
			committed++
		}
	}
	return
}
