// Copyright 2025 The BadgeLink Authors. All Rights Reserved.
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

package storage

import (
	"errors"
	"fmt"
)

// The closed set of outcomes a backend may report. Each Kind is itself an
// error, so backends may return one bare or wrapped in an *Error.
type Kind int

const (
	// Any failure not covered below.
	Other Kind = iota

	NotFound
	Exists

	// Expected a file, found a directory.
	IsDir

	// Expected a directory, found a file.
	IsFile

	NotEmpty
	NoSpace

	// The backend does not implement the operation.
	Unsupported
)

var kindNames = [...]string{
	Other:       "other",
	NotFound:    "not found",
	Exists:      "exists",
	IsDir:       "is a directory",
	IsFile:      "not a directory",
	NotEmpty:    "directory not empty",
	NoSpace:     "no space left",
	Unsupported: "not supported",
}

func (k Kind) Error() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// An error annotated with the operation and target that caused it.
type Error struct {
	Op   string
	Path string
	Kind Kind

	// The underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Kind)
	}

	return fmt.Sprintf("%s %q: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Return the Kind carried by err, looking through wrapping. Errors that carry
// none are Other.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}

	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return Other
}
