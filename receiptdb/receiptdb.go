// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package receiptdb stores transaction receipts keyed by tx hash.
package receiptdb

import (
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/keldachain/kelda/kelda"
	"github.com/keldachain/kelda/kv"
	"github.com/keldachain/kelda/tx"
)

const cacheSize = 2048

var (
	keyPrefix = []byte("r")

	errNotFound  = errors.New("receipt not found")
	errFinalized = errors.New("receipt already finalized")
)

// IsNotFound checks if the error returned by Get means the hash was never seen.
func IsNotFound(err error) bool {
	return errors.Cause(err) == errNotFound
}

// IsFinalized checks if the error returned by Put means an attempt to
// overwrite a terminal receipt. Such an attempt is a programming error;
// the stored receipt is left untouched.
func IsFinalized(err error) bool {
	return errors.Cause(err) == errFinalized
}

// Store is the receipt store. Receipts are durable in the underlying kv
// store and served through an lru cache.
type Store struct {
	store kv.GetPutter
	cache *lru.Cache

	// serializes writers. Put is read-modify-write because of the
	// terminal-overwrite guard.
	putMu sync.Mutex
}

// New creates the receipt store over the given kv store.
func New(store kv.GetPutter) *Store {
	cache, _ := lru.New(cacheSize)
	return &Store{
		store: store,
		cache: cache,
	}
}

func storeKey(hash kelda.Bytes32) []byte {
	return append(append([]byte(nil), keyPrefix...), hash.Bytes()...)
}

// Get returns the receipt for the given tx hash.
// The error can be checked via IsNotFound.
func (s *Store) Get(hash kelda.Bytes32) (*tx.Receipt, error) {
	if cached, ok := s.cache.Get(hash); ok {
		return cached.(*tx.Receipt), nil
	}

	data, err := s.store.Get(storeKey(hash))
	if err != nil {
		if s.store.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, errors.Wrap(err, "get receipt")
	}
	var receipt tx.Receipt
	if err := rlp.DecodeBytes(data, &receipt); err != nil {
		return nil, errors.Wrap(err, "decode receipt")
	}
	s.cache.Add(hash, &receipt)
	return &receipt, nil
}

// Has returns whether a receipt exists for the given tx hash.
func (s *Store) Has(hash kelda.Bytes32) bool {
	if s.cache.Contains(hash) {
		return true
	}
	has, _ := s.store.Has(storeKey(hash))
	return has
}

// Put saves the receipt. Overwriting a terminal receipt fails with an
// error checkable via IsFinalized and never corrupts the stored one.
func (s *Store) Put(receipt *tx.Receipt) error {
	s.putMu.Lock()
	defer s.putMu.Unlock()
	return s.put(s.store, receipt)
}

// PutBatch saves receipts in one atomic kv write.
func (s *Store) PutBatch(receipts tx.Receipts) error {
	s.putMu.Lock()
	defer s.putMu.Unlock()

	batch := s.store.NewBatch()
	for _, receipt := range receipts {
		if err := s.put(batch, receipt); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write receipts")
	}
	for _, receipt := range receipts {
		s.cache.Add(receipt.TxHash, receipt)
	}
	return nil
}

func (s *Store) put(w kv.Putter, receipt *tx.Receipt) error {
	if prev, err := s.Get(receipt.TxHash); err == nil && prev.Terminal() {
		return errFinalized
	}

	data, err := rlp.EncodeToBytes(receipt)
	if err != nil {
		return errors.Wrap(err, "encode receipt")
	}
	if err := w.Put(storeKey(receipt.TxHash), data); err != nil {
		return errors.Wrap(err, "put receipt")
	}
	if _, isBatch := w.(kv.Batch); !isBatch {
		s.cache.Add(receipt.TxHash, receipt)
	}
	return nil
}
