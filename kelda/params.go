// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kelda

// Constants of the engine.
const (
	// MaxBatchSize max number of transactions advanced through the pipeline per batch.
	// Bounding the batch caps per-round latency and memory.
	MaxBatchSize = 64

	// BlockInterval time interval in seconds between two consecutive batches,
	// unless on-demand batching is enabled.
	BlockInterval uint64 = 2

	// TxGas gas charged per committed transaction. Flat, there is no VM to meter.
	TxGas uint64 = 21000

	// InitialBalance balance granted to a sender account created lazily on
	// its first transaction. Receiver accounts are created with zero balance.
	InitialBalance uint64 = 5_000_000_000

	// MaxTxSize max encoded size of tx allowed.
	MaxTxSize = 32 * 1024
)
