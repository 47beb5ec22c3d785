// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/keldachain/kelda/kelda"
)

// KindType tags the operation a transaction performs.
type KindType uint8

const (
	// KindTransfer moves balance from the sender to a recipient.
	KindTransfer KindType = iota + 1
	// KindSetValue writes a key/value pair into the sender's namespace.
	KindSetValue
)

// Kind is a single operation of a transaction. The set of kinds is closed.
type Kind struct {
	body kindBody
}

type kindBody struct {
	Type      uint8
	Recipient *kelda.Address `rlp:"nil"`
	Amount    uint64
	Key       string
	Value     string
}

// NewTransferKind creates a transfer operation.
func NewTransferKind(recipient kelda.Address, amount uint64) *Kind {
	return &Kind{kindBody{
		Type:      uint8(KindTransfer),
		Recipient: &recipient,
		Amount:    amount,
	}}
}

// NewSetValueKind creates a key/value write operation.
func NewSetValueKind(key, value string) *Kind {
	return &Kind{kindBody{
		Type:  uint8(KindSetValue),
		Key:   key,
		Value: value,
	}}
}

// Type returns the kind type tag.
func (k *Kind) Type() KindType {
	return KindType(k.body.Type)
}

// Recipient returns the transfer recipient, or nil for non-transfer kinds.
func (k *Kind) Recipient() *kelda.Address {
	if k.body.Recipient == nil {
		return nil
	}
	cpy := *k.body.Recipient
	return &cpy
}

// Amount returns the transfer amount.
func (k *Kind) Amount() uint64 {
	return k.body.Amount
}

// Key returns the storage key of a set-value kind.
func (k *Kind) Key() string {
	return k.body.Key
}

// Value returns the storage value of a set-value kind.
func (k *Kind) Value() string {
	return k.body.Value
}

// Validate performs structural checks.
func (k *Kind) Validate() error {
	switch KindType(k.body.Type) {
	case KindTransfer:
		if k.body.Recipient == nil {
			return errors.New("transfer without recipient")
		}
	case KindSetValue:
		if k.body.Key == "" {
			return errors.New("set value with empty key")
		}
	default:
		return errors.Errorf("unknown kind type %d", k.body.Type)
	}
	return nil
}

func (k *Kind) String() string {
	switch KindType(k.body.Type) {
	case KindTransfer:
		return fmt.Sprintf("transfer %d -> %v", k.body.Amount, k.body.Recipient)
	case KindSetValue:
		return fmt.Sprintf("set %q = %q", k.body.Key, k.body.Value)
	default:
		return fmt.Sprintf("unknown kind %d", k.body.Type)
	}
}

// EncodeRLP implements rlp.Encoder
func (k *Kind) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &k.body)
}

// DecodeRLP implements rlp.Decoder
func (k *Kind) DecodeRLP(s *rlp.Stream) error {
	var body kindBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*k = Kind{body}
	return nil
}
