// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keldachain/kelda/genesis"
	"github.com/keldachain/kelda/kelda"
)

func TestDevnet(t *testing.T) {
	gene := genesis.NewDevnet()
	assert.Equal(t, "devnet", gene.Name())

	accs := genesis.DevAccounts()
	require.Len(t, accs, 10)
	assert.Len(t, gene.Alloc(), len(accs))

	for _, acc := range accs {
		assert.Equal(t, kelda.PubkeyToAddress(&acc.PrivateKey.PublicKey), acc.Address)
		record, ok := gene.Alloc()[acc.Address]
		require.True(t, ok)
		assert.Equal(t, kelda.InitialBalance, record.Account.Balance)
	}
}

func TestCustomNet(t *testing.T) {
	addr := kelda.BytesToAddress([]byte("custom"))
	gene, err := genesis.NewCustomNet(&genesis.CustomGenesis{
		Name: "testnet",
		Accounts: []genesis.Account{
			{
				Address: addr,
				Balance: 42,
				Nonce:   1,
				Storage: map[string]string{"k": "v"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "testnet", gene.Name())
	record := gene.Alloc()[addr]
	require.NotNil(t, record)
	assert.Equal(t, uint64(42), record.Account.Balance)
	assert.Equal(t, uint64(1), record.Account.Nonce)
	assert.Equal(t, "v", record.Storage["k"])
}

func TestCustomNetRejectsDuplicates(t *testing.T) {
	addr := kelda.BytesToAddress([]byte("dup"))
	_, err := genesis.NewCustomNet(&genesis.CustomGenesis{
		Accounts: []genesis.Account{
			{Address: addr, Balance: 1},
			{Address: addr, Balance: 2},
		},
	})
	assert.Error(t, err)
}

func TestLoadCustomGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	content := `{
		"name": "filenet",
		"accounts": [
			{"address": "0x0000000000000000000000000000000000000001", "balance": 7}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	custom, err := genesis.LoadCustomGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, "filenet", custom.Name)
	require.Len(t, custom.Accounts, 1)
	assert.Equal(t, uint64(7), custom.Accounts[0].Balance)

	_, err = genesis.LoadCustomGenesis(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
