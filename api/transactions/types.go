// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/tx"
)

// RawTx a JSON-wrapped rlp-encoded signed transaction.
type RawTx struct {
	Raw string `json:"raw"`
}

func (r *RawTx) decode() (*tx.Transaction, error) {
	data, err := hexutil.Decode(r.Raw)
	if err != nil {
		return nil, err
	}
	var trx tx.Transaction
	if err := rlp.DecodeBytes(data, &trx); err != nil {
		return nil, err
	}
	return &trx, nil
}

// Output JSON view of a receipt's effect summary.
type Output struct {
	Recipient *kelda.Address `json:"recipient,omitempty"`
	Amount    uint64         `json:"amount,omitempty"`
	Key       string         `json:"key,omitempty"`
	Value     string         `json:"value,omitempty"`
}

// Receipt JSON view of a tx receipt.
type Receipt struct {
	TxHash  kelda.Bytes32 `json:"txHash"`
	Status  string        `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Seq     uint64        `json:"seq"`
	GasUsed uint64        `json:"gasUsed"`
	Output  *Output       `json:"output,omitempty"`
}

func convertReceipt(receipt *tx.Receipt) *Receipt {
	converted := &Receipt{
		TxHash:  receipt.TxHash,
		Status:  receipt.Status.String(),
		Reason:  string(receipt.Reason),
		Seq:     receipt.Seq,
		GasUsed: receipt.GasUsed,
	}
	if receipt.Output != nil {
		converted.Output = &Output{
			Recipient: receipt.Output.Recipient,
			Amount:    receipt.Output.Amount,
			Key:       receipt.Output.Key,
			Value:     receipt.Output.Value,
		}
	}
	return converted
}
