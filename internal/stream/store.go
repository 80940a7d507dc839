// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package stream

import "sync"

// Store holds the most recent value of T.
type Store[T any] struct {
	mu   sync.RWMutex
	data T
	set  bool
}

func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.data = v
	s.set = true
	s.mu.Unlock()
}

// Get returns the stored value and whether Set has ever been called.
func (s *Store[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.set
}
