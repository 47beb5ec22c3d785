// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sort"

	"github.com/keldachain/kelda/kelda"
)

// Diff is the cumulative change of a single account within a stage.
type Diff struct {
	// the account's flat part after all changes
	Account Account
	// storage writes, nil when only the flat part changed
	Storage map[string]string
}

// Stage carries the working copy's changes, keyed by account,
// to be merged into the ledger as one new version.
type Stage struct {
	Diffs map[kelda.Address]*Diff
}

// IsEmpty reports whether the stage carries no change at all.
func (st *Stage) IsEmpty() bool {
	return len(st.Diffs) == 0
}

// Addresses returns the changed addresses in deterministic order.
func (st *Stage) Addresses() []kelda.Address {
	addrs := make([]kelda.Address, 0, len(st.Diffs))
	for addr := range st.Diffs {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i].Bytes()) < string(addrs[j].Bytes())
	})
	return addrs
}
