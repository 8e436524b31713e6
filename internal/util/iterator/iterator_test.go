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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeValues(t *testing.T) {
	t.Parallel()

	expected := []int{1, 2, 3}
	actual, err := ConsumeValues(ForSlice(expected))
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestConsumeCount(t *testing.T) {
	t.Parallel()

	n, err := ConsumeCount(ForSlice([]string{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ConsumeCount(ForSlice[string](nil))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestForFunc(t *testing.T) {
	t.Parallel()

	var i int
	f := func() (struct{}, int, error) {
		var k struct{}

		i++
		if i > 3 {
			return k, 0, ErrIteratorDone
		}

		return k, i, nil
	}

	var closed int
	iter := ForFunc(f, func() { closed++ })

	_, v, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	iter.Close()
	iter.Close()
	assert.Equal(t, 1, closed)

	_, _, err = iter.Next()
	require.ErrorIs(t, err, ErrIteratorDone)
}

func TestForFuncError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	iter := ForFunc(func() (int, int, error) { return 0, 0, boom }, nil)

	_, err := ConsumeValues(iter)
	require.ErrorIs(t, err, boom)

	_, _, err = iter.Next()
	require.ErrorIs(t, err, ErrIteratorDone)
}
