// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"sort"
	"sync"
	"time"

	"github.com/keldachain/kelda/kelda"
)

// txObjectMap maintains the mapping of tx hash to tx object, plus a
// per-origin view kept sorted by nonce, and account quota.
type txObjectMap struct {
	lock      sync.RWMutex
	mapByHash map[kelda.Bytes32]*txObject
	byOrigin  map[kelda.Address][]*txObject
	quota     map[kelda.Address]int
}

func newTxObjectMap() *txObjectMap {
	return &txObjectMap{
		mapByHash: make(map[kelda.Bytes32]*txObject),
		byOrigin:  make(map[kelda.Address][]*txObject),
		quota:     make(map[kelda.Address]int),
	}
}

func (m *txObjectMap) ContainsHash(txHash kelda.Bytes32) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, found := m.mapByHash[txHash]
	return found
}

func (m *txObjectMap) GetByHash(txHash kelda.Bytes32) *txObject {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.mapByHash[txHash]
}

func (m *txObjectMap) Add(txObj *txObject, limitPerAccount int) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	hash := txObj.Hash()
	if _, found := m.mapByHash[hash]; found {
		return nil
	}

	origin := txObj.Origin()
	if m.quota[origin] >= limitPerAccount {
		return txRejectedError{"account quota exceeded"}
	}

	m.quota[origin]++
	m.mapByHash[hash] = txObj

	objs := append(m.byOrigin[origin], txObj)
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].Nonce() < objs[j].Nonce()
	})
	m.byOrigin[origin] = objs
	return nil
}

func (m *txObjectMap) RemoveByHash(txHash kelda.Bytes32) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.remove(txHash)
}

// WithdrawByHash removes the object only if it is still unclaimed, in one
// critical section, so a concurrent claim cannot slip in between.
func (m *txObjectMap) WithdrawByHash(txHash kelda.Bytes32) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	txObj, ok := m.mapByHash[txHash]
	if !ok {
		return errNotFound
	}
	if txObj.claimed {
		return errClaimed
	}
	m.remove(txHash)
	return nil
}

// EvictExpired removes every unclaimed object older than lifetime and
// returns them. Check and removal share one critical section, so a
// concurrent claim cannot race the eviction.
func (m *txObjectMap) EvictExpired(lifetime time.Duration) []*txObject {
	m.lock.Lock()
	defer m.lock.Unlock()

	var evicted []*txObject
	for hash, txObj := range m.mapByHash {
		if txObj.claimed || !txObj.Expired(lifetime) {
			continue
		}
		m.remove(hash)
		evicted = append(evicted, txObj)
	}
	return evicted
}

func (m *txObjectMap) remove(txHash kelda.Bytes32) bool {
	txObj, ok := m.mapByHash[txHash]
	if !ok {
		return false
	}

	origin := txObj.Origin()
	if m.quota[origin] > 1 {
		m.quota[origin]--
	} else {
		delete(m.quota, origin)
	}
	delete(m.mapByHash, txHash)

	objs := m.byOrigin[origin]
	for i, obj := range objs {
		if obj.Hash() == txHash {
			m.byOrigin[origin] = append(objs[:i], objs[i+1:]...)
			break
		}
	}
	if len(m.byOrigin[origin]) == 0 {
		delete(m.byOrigin, origin)
	}
	return true
}

// ToTxObjects returns all objects in the map, unordered.
func (m *txObjectMap) ToTxObjects() []*txObject {
	m.lock.RLock()
	defer m.lock.RUnlock()

	txObjs := make([]*txObject, 0, len(m.mapByHash))
	for _, txObj := range m.mapByHash {
		txObjs = append(txObjs, txObj)
	}
	return txObjs
}

// Eligible returns up to max unclaimed objects in committal candidate
// order: per origin ascending by nonce, origins ordered by the arrival of
// their earliest pending tx. When mark is set the returned objects are
// flagged claimed.
func (m *txObjectMap) Eligible(max int, mark bool) []*txObject {
	m.lock.Lock()
	defer m.lock.Unlock()

	type group struct {
		first uint64
		objs  []*txObject
	}
	groups := make([]group, 0, len(m.byOrigin))
	for _, objs := range m.byOrigin {
		g := group{first: ^uint64(0)}
		for _, obj := range objs {
			if obj.claimed {
				continue
			}
			if obj.arrival < g.first {
				g.first = obj.arrival
			}
			g.objs = append(g.objs, obj)
		}
		if len(g.objs) > 0 {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].first < groups[j].first
	})

	picked := make([]*txObject, 0, max)
	for _, g := range groups {
		for _, obj := range g.objs {
			if len(picked) >= max {
				break
			}
			if mark {
				obj.claimed = true
			}
			picked = append(picked, obj)
		}
	}
	return picked
}

func (m *txObjectMap) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.mapByHash)
}
