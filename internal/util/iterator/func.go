// Copyright 2021 FerretDB Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package iterator

import "sync"

// ForFunc returns an iterator for the given function.
//
// The optional close function is called once, when the iterator is closed.
func ForFunc[K, V any](next NextFunc[K, V], closeFunc func()) Interface[K, V] {
	return &funcIterator[K, V]{
		next:  next,
		close: closeFunc,
	}
}

// funcIterator implements iterator.Interface.
type funcIterator[K, V any] struct {
	m     sync.Mutex
	next  NextFunc[K, V]
	close func()
}

// Next implements iterator.Interface.
func (iter *funcIterator[K, V]) Next() (K, V, error) {
	iter.m.Lock()
	defer iter.m.Unlock()

	if iter.next == nil {
		var k K
		var v V

		return k, v, ErrIteratorDone
	}

	return iter.next()
}

// Close implements iterator.Interface.
func (iter *funcIterator[K, V]) Close() {
	iter.m.Lock()
	defer iter.m.Unlock()

	iter.next = nil

	if iter.close != nil {
		iter.close()
		iter.close = nil
	}
}

// check interfaces
var (
	_ Interface[any, any] = (*funcIterator[any, any])(nil)
)
