// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/state"
)

var checkpointKey = []byte("ledger.checkpoint")

// wire form of a snapshot, deterministic by construction.
type (
	storedSnapshot struct {
		Version  uint64
		Root     kelda.Bytes32
		Accounts []storedAccount
	}
	storedAccount struct {
		Addr    kelda.Address
		Nonce   uint64
		Balance uint64
		Storage []storedPair
	}
	storedPair struct {
		Key   string
		Value string
	}
)

func storedAccountOf(addr kelda.Address, rec *AccountRecord) storedAccount {
	sa := storedAccount{
		Addr:    addr,
		Nonce:   rec.Account.Nonce,
		Balance: rec.Account.Balance,
	}
	keys := make([]string, 0, len(rec.Storage))
	for k := range rec.Storage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sa.Storage = append(sa.Storage, storedPair{k, rec.Storage[k]})
	}
	return sa
}

func encodeSnapshot(s *Snapshot) []byte {
	stored := storedSnapshot{
		Version: s.version,
		Root:    s.root,
	}
	addrs := make([]kelda.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i].Bytes()) < string(addrs[j].Bytes())
	})
	for _, addr := range addrs {
		stored.Accounts = append(stored.Accounts, storedAccountOf(addr, s.accounts[addr]))
	}

	data, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		// all field types are rlp-encodable
		panic(err)
	}
	return data
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var stored storedSnapshot
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}

	accounts := make(map[kelda.Address]*AccountRecord, len(stored.Accounts))
	for _, sa := range stored.Accounts {
		rec := &AccountRecord{
			Account: state.Account{Nonce: sa.Nonce, Balance: sa.Balance},
		}
		if len(sa.Storage) > 0 {
			rec.Storage = make(map[string]string, len(sa.Storage))
			for _, p := range sa.Storage {
				rec.Storage[p.Key] = p.Value
			}
		}
		accounts[sa.Addr] = rec
	}

	return &Snapshot{
		version:  stored.Version,
		root:     stored.Root,
		accounts: accounts,
	}, nil
}

// recordHash digests the committed form of one account.
func recordHash(addr kelda.Address, rec *AccountRecord) kelda.Bytes32 {
	sa := storedAccountOf(addr, rec)
	data, err := rlp.EncodeToBytes(&sa)
	if err != nil {
		panic(err)
	}
	return kelda.Blake2b(data)
}

// rehash chains the previous root with the hashes of changed records.
// With st == nil every account counts as changed (genesis).
func rehash(prev kelda.Bytes32, accounts map[kelda.Address]*AccountRecord, st *state.Stage) kelda.Bytes32 {
	var addrs []kelda.Address
	if st != nil {
		addrs = st.Addresses()
	} else {
		for addr := range accounts {
			addrs = append(addrs, addr)
		}
		sort.Slice(addrs, func(i, j int) bool {
			return string(addrs[i].Bytes()) < string(addrs[j].Bytes())
		})
	}

	root := prev
	for _, addr := range addrs {
		h := recordHash(addr, accounts[addr])
		root = kelda.Blake2b(root.Bytes(), addr.Bytes(), h.Bytes())
	}
	return root
}
