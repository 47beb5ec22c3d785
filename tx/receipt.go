// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/keldachain/kelda/kelda"
)

// Status of a transaction recorded in its receipt.
type Status uint8

const (
	// StatusPending the tx entered the pipeline but has no terminal outcome yet.
	StatusPending Status = iota
	// StatusCommitted the tx executed and its effect is part of a committed ledger version.
	StatusCommitted
	// StatusRejected the tx was rejected by a pipeline stage. Terminal.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCommitted:
		return "committed"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// RejectReason names why a transaction was rejected inside the pipeline.
type RejectReason string

const (
	ReasonInvalidSignature RejectReason = "invalid signature"
	ReasonNonceMismatch    RejectReason = "nonce mismatch"
	ReasonExecutionError   RejectReason = "execution error"
	// ReasonExpired the tx aged out of the pool before being claimed.
	ReasonExpired RejectReason = "expired"
	// ReasonWithdrawn the sender withdrew the tx before it was claimed.
	ReasonWithdrawn RejectReason = "withdrawn"
)

// Output summarizes the effect of a committed transaction.
type Output struct {
	Recipient *kelda.Address `rlp:"nil"`
	Amount    uint64
	Key       string
	Value     string
}

// Receipt represents the result of a transaction, keyed by its hash.
// Once terminal it never changes.
type Receipt struct {
	// hash of the tx this receipt belongs to
	TxHash kelda.Bytes32
	// status of tx
	Status Status
	// why the tx was rejected, empty otherwise
	Reason RejectReason
	// position in committal order, assigned at sequencing
	Seq uint64
	// gas used by this tx
	GasUsed uint64
	// effect summary, nil unless committed
	Output *Output `rlp:"nil"`
}

// Terminal reports whether the receipt reached a terminal state.
func (r *Receipt) Terminal() bool {
	return r.Status != StatusPending
}

// Receipts slice of receipts.
type Receipts []*Receipt
