// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/keldachain/kelda/kelda"
)

var errInvalidSigLen = errors.New("invalid signature length")

// Transaction is an immutable tx type.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Value
		hash        atomic.Value
		origin      atomic.Value
		size        atomic.Value
	}
}

// body describes details of a tx.
type body struct {
	Nonce     uint64
	Kind      *Kind
	Signature []byte
}

// Nonce returns the account nonce this tx consumes.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Kind returns the operation of this tx.
func (t *Transaction) Kind() *Kind {
	return t.body.Kind
}

// Signature returns signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// Hash returns the content-addressed hash of the signed tx.
// Two submissions with identical signed bytes map to the same hash.
func (t *Transaction) Hash() (hash kelda.Bytes32) {
	if cached := t.cache.hash.Load(); cached != nil {
		return cached.(kelda.Bytes32)
	}
	defer func() { t.cache.hash.Store(hash) }()

	hash = kelda.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, t)
	})
	return
}

// SigningHash returns hash of the tx excluding signature.
func (t *Transaction) SigningHash() (hash kelda.Bytes32) {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return cached.(kelda.Bytes32)
	}
	defer func() { t.cache.signingHash.Store(hash) }()

	hash = kelda.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []any{
			t.body.Nonce,
			t.body.Kind,
		})
	})
	return
}

// Origin extracts the sender address from the signature.
// The sender is never trusted from input.
func (t *Transaction) Origin() (kelda.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return cached.(kelda.Address), nil
	}

	if len(t.body.Signature) != 65 {
		return kelda.Address{}, errInvalidSigLen
	}
	pub, err := crypto.SigToPub(t.SigningHash().Bytes(), t.body.Signature)
	if err != nil {
		return kelda.Address{}, err
	}
	origin := kelda.PubkeyToAddress(pub)
	t.cache.origin.Store(origin)
	return origin, nil
}

// WithSignature create a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{
		body: t.body,
	}
	// copy sig
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// Size returns the encoded size of the tx in bytes.
func (t *Transaction) Size() (size uint64) {
	if cached := t.cache.size.Load(); cached != nil {
		return cached.(uint64)
	}
	defer func() { t.cache.size.Store(size) }()

	var cw countingWriter
	rlp.Encode(&cw, t)
	return uint64(cw)
}

// ValidateBasics performs structural checks on the tx.
// It does not touch signature nor state.
func (t *Transaction) ValidateBasics() error {
	if t.body.Kind == nil {
		return errors.New("tx without kind")
	}
	if err := t.body.Kind.Validate(); err != nil {
		return err
	}
	if t.Size() > kelda.MaxTxSize {
		return errors.New("size too large")
	}
	return nil
}

// EncodeRLP implements rlp.Encoder
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{
		body: body,
	}
	return nil
}

func (t *Transaction) String() string {
	origin := "n/a"
	if o, err := t.Origin(); err == nil {
		origin = o.String()
	}
	return fmt.Sprintf(`
	Tx(%v)
	Origin:  %v
	Nonce:   %v
	Kind:    %v
`, t.Hash(), origin, t.body.Nonce, t.body.Kind)
}

type countingWriter uint64

func (cw *countingWriter) Write(p []byte) (int, error) {
	*cw += countingWriter(len(p))
	return len(p), nil
}
