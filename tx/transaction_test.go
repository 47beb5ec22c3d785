// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/tx"
)

func TestSignAndRecover(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)

	recipient := kelda.BytesToAddress([]byte("recipient"))
	trx := new(tx.Builder).
		Nonce(7).
		Kind(tx.NewTransferKind(recipient, 100)).
		Build()

	_, err = trx.Origin()
	assert.Error(t, err, "unsigned tx must not recover an origin")

	signed := tx.MustSign(trx, pk)
	origin, err := signed.Origin()
	require.NoError(t, err)
	assert.Equal(t, kelda.PubkeyToAddress(&pk.PublicKey), origin)

	assert.Equal(t, uint64(7), signed.Nonce())
	assert.Equal(t, recipient, *signed.Kind().Recipient())
	assert.Equal(t, uint64(100), signed.Kind().Amount())
}

func TestHashContentAddressed(t *testing.T) {
	pk, _ := crypto.GenerateKey()

	build := func(nonce uint64) *tx.Transaction {
		return tx.MustSign(new(tx.Builder).
			Nonce(nonce).
			Kind(tx.NewSetValueKind("k", "v")).
			Build(), pk)
	}

	assert.Equal(t, build(1).Hash(), build(1).Hash())
	assert.NotEqual(t, build(1).Hash(), build(2).Hash())
}

func TestRLPRoundTrip(t *testing.T) {
	pk, _ := crypto.GenerateKey()
	signed := tx.MustSign(new(tx.Builder).
		Nonce(3).
		Kind(tx.NewSetValueKind("city", "aberdeen")).
		Build(), pk)

	data, err := rlp.EncodeToBytes(signed)
	require.NoError(t, err)

	var decoded tx.Transaction
	require.NoError(t, rlp.DecodeBytes(data, &decoded))

	assert.Equal(t, signed.Hash(), decoded.Hash())
	assert.Equal(t, signed.Nonce(), decoded.Nonce())
	assert.Equal(t, "city", decoded.Kind().Key())
	assert.Equal(t, "aberdeen", decoded.Kind().Value())

	origin1, err := signed.Origin()
	require.NoError(t, err)
	origin2, err := decoded.Origin()
	require.NoError(t, err)
	assert.Equal(t, origin1, origin2)
}

func TestValidateBasics(t *testing.T) {
	pk, _ := crypto.GenerateKey()

	noKind := new(tx.Builder).Nonce(0).Build()
	assert.Error(t, noKind.ValidateBasics())

	emptyKey := tx.MustSign(new(tx.Builder).
		Nonce(0).
		Kind(tx.NewSetValueKind("", "v")).
		Build(), pk)
	assert.Error(t, emptyKey.ValidateBasics())

	ok := tx.MustSign(new(tx.Builder).
		Nonce(0).
		Kind(tx.NewSetValueKind("k", "v")).
		Build(), pk)
	assert.NoError(t, ok.ValidateBasics())
}

func TestReceiptTerminal(t *testing.T) {
	pending := &tx.Receipt{Status: tx.StatusPending}
	assert.False(t, pending.Terminal())

	committed := &tx.Receipt{Status: tx.StatusCommitted}
	assert.True(t, committed.Terminal())

	rejected := &tx.Receipt{Status: tx.StatusRejected, Reason: tx.ReasonNonceMismatch}
	assert.True(t, rejected.Terminal())
}
