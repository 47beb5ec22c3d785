// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/keldachain/kelda/kelda"
)

// Transactions a slice of transactions.
type Transactions []*Transaction

// Hashes returns hashes of txs.
func (txs Transactions) Hashes() []kelda.Bytes32 {
	hashes := make([]kelda.Bytes32, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash()
	}
	return hashes
}
