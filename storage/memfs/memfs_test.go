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

package memfs_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/badgelink/badgelink/storage"
	"github.com/badgelink/badgelink/storage/memfs"
	"github.com/jacobsa/timeutil"
	"github.com/kylelemons/godebug/pretty"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestMemFS(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

const capacity = 64

type MemFSTest struct {
	ctx   context.Context
	clock timeutil.SimulatedClock
	fs    storage.FileSystem
}

var _ SetUpInterface = &MemFSTest{}

func init() { RegisterTestSuite(&MemFSTest{}) }

func (t *MemFSTest) SetUp(ti *TestInfo) {
	t.ctx = context.Background()

	// Set up a fixed, non-zero time.
	t.clock.SetTime(time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC))

	t.fs = memfs.NewMemFS(&t.clock, capacity)
}

func (t *MemFSTest) mkdir(p string) {
	AssertEq(nil, t.fs.MkDir(t.ctx, &storage.MkDirOp{Path: p}))
}

func (t *MemFSTest) writeFile(p string, contents string) {
	op := &storage.CreateFileOp{Path: p, SizeHint: uint32(len(contents))}
	AssertEq(nil, t.fs.CreateFile(t.ctx, op))

	_, err := io.WriteString(op.Handle, contents)
	AssertEq(nil, err)
	AssertEq(nil, op.Handle.Close())
}

func (t *MemFSTest) readFile(p string) string {
	op := &storage.OpenFileOp{Path: p}
	AssertEq(nil, t.fs.OpenFile(t.ctx, op))
	defer op.Handle.Close()

	b, err := io.ReadAll(op.Handle)
	AssertEq(nil, err)
	AssertEq(op.Size, len(b))

	return string(b)
}

func (t *MemFSTest) readDir(p string) []storage.Dirent {
	op := &storage.ReadDirOp{Path: p}
	AssertEq(nil, t.fs.ReadDir(t.ctx, op))
	return op.Entries
}

////////////////////////////////////////////////////////////////////////
// Tests
////////////////////////////////////////////////////////////////////////

func (t *MemFSTest) EmptyRoot() {
	want := []storage.Dirent{
		{Name: ".", IsDir: true},
		{Name: "..", IsDir: true},
	}

	ExpectEq("", pretty.Compare(want, t.readDir("/")))
}

func (t *MemFSTest) ListingOrder() {
	t.mkdir("/sd")
	t.writeFile("/b.txt", "b")
	t.writeFile("/a.txt", "a")

	want := []storage.Dirent{
		{Name: ".", IsDir: true},
		{Name: "..", IsDir: true},
		{Name: "sd", IsDir: true},
		{Name: "b.txt"},
		{Name: "a.txt"},
	}

	ExpectEq("", pretty.Compare(want, t.readDir("/")))
}

func (t *MemFSTest) WriteThenRead() {
	t.mkdir("/int")
	t.writeFile("/int/taco", "burrito")

	ExpectEq("burrito", t.readFile("/int/taco"))
}

func (t *MemFSTest) CreateTruncates() {
	t.writeFile("/f", "0123456789")
	t.writeFile("/f", "ab")

	ExpectEq("ab", t.readFile("/f"))
}

func (t *MemFSTest) ReadDirMissing() {
	err := t.fs.ReadDir(t.ctx, &storage.ReadDirOp{Path: "/nope"})
	ExpectEq(storage.NotFound, storage.KindOf(err))
}

func (t *MemFSTest) ReadDirOnFile() {
	t.writeFile("/f", "")

	err := t.fs.ReadDir(t.ctx, &storage.ReadDirOp{Path: "/f"})
	ExpectEq(storage.IsFile, storage.KindOf(err))
}

func (t *MemFSTest) MkDirExists() {
	t.mkdir("/d")

	err := t.fs.MkDir(t.ctx, &storage.MkDirOp{Path: "/d"})
	ExpectEq(storage.Exists, storage.KindOf(err))
}

func (t *MemFSTest) MkDirParentMissing() {
	err := t.fs.MkDir(t.ctx, &storage.MkDirOp{Path: "/a/b"})
	ExpectEq(storage.NotFound, storage.KindOf(err))
}

func (t *MemFSTest) MkDirParentIsFile() {
	t.writeFile("/f", "")

	err := t.fs.MkDir(t.ctx, &storage.MkDirOp{Path: "/f/d"})
	ExpectEq(storage.IsFile, storage.KindOf(err))
}

func (t *MemFSTest) RmDir() {
	t.mkdir("/d")
	AssertEq(nil, t.fs.RmDir(t.ctx, &storage.RmDirOp{Path: "/d"}))

	err := t.fs.Stat(t.ctx, &storage.StatOp{Path: "/d"})
	ExpectEq(storage.NotFound, storage.KindOf(err))
}

func (t *MemFSTest) RmDirNotEmpty() {
	t.mkdir("/d")
	t.writeFile("/d/f", "x")

	err := t.fs.RmDir(t.ctx, &storage.RmDirOp{Path: "/d"})
	ExpectEq(storage.NotEmpty, storage.KindOf(err))
}

func (t *MemFSTest) RmDirOnFile() {
	t.writeFile("/f", "x")

	err := t.fs.RmDir(t.ctx, &storage.RmDirOp{Path: "/f"})
	ExpectEq(storage.IsFile, storage.KindOf(err))
}

func (t *MemFSTest) RmDirMissing() {
	err := t.fs.RmDir(t.ctx, &storage.RmDirOp{Path: "/d"})
	ExpectEq(storage.NotFound, storage.KindOf(err))
}

func (t *MemFSTest) Unlink() {
	t.writeFile("/f", "x")
	AssertEq(nil, t.fs.Unlink(t.ctx, &storage.UnlinkOp{Path: "/f"}))

	err := t.fs.OpenFile(t.ctx, &storage.OpenFileOp{Path: "/f"})
	ExpectEq(storage.NotFound, storage.KindOf(err))
}

func (t *MemFSTest) UnlinkDirectory() {
	t.mkdir("/d")

	err := t.fs.Unlink(t.ctx, &storage.UnlinkOp{Path: "/d"})
	ExpectEq(storage.IsDir, storage.KindOf(err))
}

func (t *MemFSTest) UnlinkMissing() {
	err := t.fs.Unlink(t.ctx, &storage.UnlinkOp{Path: "/f"})
	ExpectEq(storage.NotFound, storage.KindOf(err))
}

func (t *MemFSTest) CreateOverDirectory() {
	t.mkdir("/d")

	err := t.fs.CreateFile(t.ctx, &storage.CreateFileOp{Path: "/d"})
	ExpectEq(storage.IsDir, storage.KindOf(err))
}

func (t *MemFSTest) OpenDirectory() {
	t.mkdir("/d")

	err := t.fs.OpenFile(t.ctx, &storage.OpenFileOp{Path: "/d"})
	ExpectEq(storage.IsDir, storage.KindOf(err))
}

func (t *MemFSTest) Stat() {
	createTime := t.clock.Now()
	t.writeFile("/f", "taco")

	t.clock.AdvanceTime(time.Second)
	readTime := t.clock.Now()
	t.readFile("/f")

	op := &storage.StatOp{Path: "/f"}
	AssertEq(nil, t.fs.Stat(t.ctx, op))

	ExpectEq(4, op.Attributes.Size)
	ExpectFalse(op.Attributes.IsDir)
	ExpectThat(op.Attributes.Mtime, timeutil.TimeEq(createTime))
	ExpectThat(op.Attributes.Ctime, timeutil.TimeEq(createTime))
	ExpectThat(op.Attributes.Atime, timeutil.TimeEq(readTime))
}

func (t *MemFSTest) StatDirectory() {
	t.mkdir("/d")

	op := &storage.StatOp{Path: "/d"}
	AssertEq(nil, t.fs.Stat(t.ctx, op))

	ExpectTrue(op.Attributes.IsDir)
	ExpectEq(0, op.Attributes.Size)
}

func (t *MemFSTest) PathsAreCleaned() {
	t.mkdir("/d")
	t.writeFile("d/../d/./f", "x")

	ExpectEq("x", t.readFile("/d/f"))
}

func (t *MemFSTest) WriteBeyondCapacity() {
	op := &storage.CreateFileOp{Path: "/big"}
	AssertEq(nil, t.fs.CreateFile(t.ctx, op))
	defer op.Handle.Close()

	n, err := op.Handle.Write(make([]byte, capacity-1))
	AssertEq(nil, err)
	AssertEq(capacity-1, n)

	n, err = op.Handle.Write(make([]byte, 2))
	ExpectEq(storage.NoSpace, storage.KindOf(err))
	ExpectEq(0, n)

	// Nothing was written, and a write that fits still succeeds.
	n, err = op.Handle.Write(make([]byte, 1))
	AssertEq(nil, err)
	ExpectEq(1, n)
}

func (t *MemFSTest) SpaceIsReclaimed() {
	t.writeFile("/a", string(make([]byte, capacity)))
	AssertEq(nil, t.fs.Unlink(t.ctx, &storage.UnlinkOp{Path: "/a"}))

	t.writeFile("/b", string(make([]byte, capacity)))
}

func (t *MemFSTest) WriteAfterClose() {
	op := &storage.CreateFileOp{Path: "/f"}
	AssertEq(nil, t.fs.CreateFile(t.ctx, op))
	AssertEq(nil, op.Handle.Close())

	_, err := op.Handle.Write([]byte("x"))
	ExpectThat(err, Error(HasSubstr("closed")))
}

func (t *MemFSTest) ReaderSeeks() {
	t.writeFile("/f", "abcdef")

	op := &storage.OpenFileOp{Path: "/f"}
	AssertEq(nil, t.fs.OpenFile(t.ctx, op))
	defer op.Handle.Close()

	_, err := io.ReadAll(op.Handle)
	AssertEq(nil, err)

	off, err := op.Handle.Seek(2, io.SeekStart)
	AssertEq(nil, err)
	AssertEq(2, off)

	b, err := io.ReadAll(op.Handle)
	AssertEq(nil, err)
	ExpectEq("cdef", string(b))
}
