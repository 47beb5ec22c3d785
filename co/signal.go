// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter provides channel to wait for.
type Waiter interface {
	C() <-chan struct{}
}

// Signal a rendezvous point for goroutines waiting for or announcing the
// occurrence of an event. It's channel based, so the wait can be part of
// a select.
type Signal struct {
	l  sync.Mutex
	ch chan struct{}
}

func (s *Signal) init() {
	if s.ch == nil {
		s.ch = make(chan struct{}, 1)
	}
}

// Signal wakes one goroutine that is waiting on s.
func (s *Signal) Signal() {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Broadcast wakes all goroutines that are waiting on s.
func (s *Signal) Broadcast() {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	close(s.ch)
	s.ch = make(chan struct{}, 1)
}

// NewWaiter create a Waiter object for acquiring channel to wait for.
func (s *Signal) NewWaiter() Waiter {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	ref := s.ch

	return waiterFunc(func() (ch <-chan struct{}) {
		ch = ref

		s.l.Lock()
		ref = s.ch
		s.l.Unlock()

		return
	})
}

type waiterFunc func() <-chan struct{}

func (w waiterFunc) C() <-chan struct{} {
	return w()
}
