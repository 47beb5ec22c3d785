// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/state"
)

// Account is one entry of a custom genesis allocation.
type Account struct {
	Address kelda.Address     `json:"address"`
	Balance uint64            `json:"balance"`
	Nonce   uint64            `json:"nonce"`
	Storage map[string]string `json:"storage,omitempty"`
}

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	Name     string    `json:"name"`
	Accounts []Account `json:"accounts"`
}

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	name := gen.Name
	if name == "" {
		name = "customnet"
	}
	alloc := make(map[kelda.Address]*ledger.AccountRecord)
	for _, a := range gen.Accounts {
		if a.Address.IsZero() {
			return nil, errors.New("genesis account address must be set")
		}
		if _, found := alloc[a.Address]; found {
			return nil, errors.Errorf("%v: duplicate genesis account", a.Address)
		}
		record := &ledger.AccountRecord{
			Account: state.Account{Nonce: a.Nonce, Balance: a.Balance},
		}
		if len(a.Storage) > 0 {
			record.Storage = make(map[string]string, len(a.Storage))
			for k, v := range a.Storage {
				if k == "" {
					return nil, errors.Errorf("%v: empty storage key", a.Address)
				}
				record.Storage[k] = v
			}
		}
		alloc[a.Address] = record
	}
	return &Genesis{
		name:  name,
		alloc: alloc,
	}, nil
}

// LoadCustomGenesis reads and parses a custom genesis file.
func LoadCustomGenesis(path string) (*CustomGenesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var gen CustomGenesis
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	return &gen, nil
}
