// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"time"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/tx"
)

type txObject struct {
	*tx.Transaction

	origin    kelda.Address // recovered once at admission
	timeAdded int64
	arrival   uint64 // pool-wide admission counter, breaks FIFO ties
	claimed   bool   // claimed by the pipeline, no longer withdrawable
}

func resolveTx(trx *tx.Transaction) (*txObject, error) {
	origin, err := trx.Origin()
	if err != nil {
		return nil, err
	}

	return &txObject{
		Transaction: trx,
		origin:      origin,
		timeAdded:   time.Now().UnixNano(),
	}, nil
}

func (o *txObject) Origin() kelda.Address {
	return o.origin
}

func (o *txObject) Expired(lifetime time.Duration) bool {
	return time.Now().UnixNano()-o.timeAdded > int64(lifetime)
}

func (o *txObject) asEntry() *Entry {
	return &Entry{
		Tx:      o.Transaction,
		Origin:  o.origin,
		Arrival: o.arrival,
	}
}

// Entry is a pool entry handed to the pipeline. The origin is the one
// recovered at admission; validation re-derives it from the signature.
type Entry struct {
	Tx      *tx.Transaction
	Origin  kelda.Address
	Arrival uint64
}

// Entries is a slice of pool entries.
type Entries []*Entry

// Txs extracts the raw transactions.
func (es Entries) Txs() tx.Transactions {
	txs := make(tx.Transactions, 0, len(es))
	for _, e := range es {
		txs = append(txs, e.Tx)
	}
	return txs
}
