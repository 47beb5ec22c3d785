// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the interfaces of the key-value persistence collaborator.
package kv

// Getter defines methods to read kv.
type Getter interface {
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter defines methods to write kv.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch defines batched writes, applied atomically by Write.
type Batch interface {
	Putter
	Len() int
	Write() error
}

// GetPutter defines methods to read/write kv.
type GetPutter interface {
	Getter
	Putter
	NewBatch() Batch
}

// GetPutCloser GetPutter with Close method.
type GetPutCloser interface {
	GetPutter
	Close() error
}
