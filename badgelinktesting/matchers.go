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

package badgelinktesting

import (
	"fmt"
	"reflect"

	"github.com/badgelink/badgelink/wire"
	"github.com/jacobsa/oglematchers"
)

// Match *wire.Response values, or bare wire.StatusCode values, carrying the
// given status.
func StatusIs(expected wire.StatusCode) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error { return statusIs(c, expected) },
		fmt.Sprintf("status is %v", expected))
}

func statusIs(c interface{}, expected wire.StatusCode) error {
	var actual wire.StatusCode

	switch v := c.(type) {
	case wire.StatusCode:
		actual = v

	case *wire.Response:
		if v == nil {
			return fmt.Errorf("which is a nil response")
		}

		actual = v.StatusCode

	default:
		return fmt.Errorf("which is of type %v", reflect.TypeOf(c))
	}

	if actual != expected {
		return fmt.Errorf("which has status %v", actual)
	}

	return nil
}

// Match *wire.Response values carrying a directory listing with exactly the
// given names, in order, and the given total.
func ListIs(total uint32, names ...string) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error { return listIs(c, total, names) },
		fmt.Sprintf("listing of %d with entries %q", total, names))
}

func listIs(c interface{}, total uint32, names []string) error {
	resp, ok := c.(*wire.Response)
	if !ok {
		return fmt.Errorf("which is of type %v", reflect.TypeOf(c))
	}

	var actual []string
	var actualTotal uint32

	switch b := resp.Body.(type) {
	case *wire.FsActionResp:
		l, ok := b.Val.(*wire.FsDirentList)
		if !ok {
			return fmt.Errorf("which carries %v", b.Val)
		}

		for _, e := range l.Entries {
			actual = append(actual, e.Name)
		}

		actualTotal = l.TotalSize

	case *wire.AppfsActionResp:
		l, ok := b.Val.(*wire.AppfsMetaList)
		if !ok {
			return fmt.Errorf("which carries %v", b.Val)
		}

		for _, e := range l.Entries {
			actual = append(actual, e.Slug)
		}

		actualTotal = l.TotalSize

	default:
		return fmt.Errorf("which is %v", resp)
	}

	if actualTotal != total {
		return fmt.Errorf("which has total %d", actualTotal)
	}

	if len(actual) != len(names) {
		return fmt.Errorf("which has entries %q", actual)
	}

	for i := range names {
		if actual[i] != names[i] {
			return fmt.Errorf("which has entries %q", actual)
		}
	}

	return nil
}
