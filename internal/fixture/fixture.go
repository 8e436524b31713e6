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

// Package fixture reads records from JSON fixture files.
//
// A fixture is a JSON array of objects. Each object is decoded as relaxed MongoDB Extended JSON,
// so values like {"$date": "..."} or {"$oid": "..."} become proper BSON types.
package fixture

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/FerretDB/randomwinner/internal/util/iterator"
	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

// members is the default fixture.
//
//go:embed members.json
var members []byte

// ErrNoName is returned when a record does not have a string name field.
var ErrNoName = errors.New("record has no name")

// Open returns an iterator over at most n records of the fixture file at the given path.
// Empty path means the default embedded fixture.
//
// Iterator yields (seq, record) pairs where seq starts at 0.
// Closing the iterator closes the file.
func Open(path string, n int) (iterator.Interface[int, bson.D], error) {
	if path == "" {
		return Read(bytes.NewReader(members), n)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	iter, err := newIterator(f, n, func() { _ = f.Close() })
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return iter, nil
}

// Read returns an iterator over at most n records read from r.
//
// Iterator yields (seq, record) pairs where seq starts at 0.
func Read(r io.Reader, n int) (iterator.Interface[int, bson.D], error) {
	return newIterator(r, n, nil)
}

// newIterator reads the opening bracket of JSON array and returns an iterator over its elements.
func newIterator(r io.Reader, n int, closeFunc func()) (iterator.Interface[int, bson.D], error) {
	dec := json.NewDecoder(r)

	t, err := dec.Token()
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if d, ok := t.(json.Delim); !ok || d != '[' {
		return nil, lazyerrors.Errorf("fixture must be a JSON array, got %v", t)
	}

	var seq int

	next := func() (int, bson.D, error) {
		if seq >= n || !dec.More() {
			return 0, nil, iterator.ErrIteratorDone
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return 0, nil, lazyerrors.Errorf("record %d: %w", seq, err)
		}

		var doc bson.D
		if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
			return 0, nil, lazyerrors.Errorf("record %d: %w", seq, err)
		}

		i := seq
		seq++

		return i, doc, nil
	}

	return iterator.ForFunc(next, closeFunc), nil
}

// Name returns the record's name as valid UTF-8; invalid bytes are dropped.
//
// It returns ErrNoName if the name field is absent or is not a string.
func Name(doc bson.D) (string, error) {
	for _, e := range doc {
		if e.Key != "name" {
			continue
		}

		s, ok := e.Value.(string)
		if !ok {
			return "", lazyerrors.Errorf("%w: name is %T", ErrNoName, e.Value)
		}

		return strings.ToValidUTF8(s, ""), nil
	}

	return "", lazyerrors.Error(ErrNoName)
}
