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

import "context"

// A FileSystem that responds to all ops with Unsupported. Embed this in your
// struct to inherit default implementations for the methods you don't care
// about, ensuring your struct will continue to implement FileSystem even as
// new methods are added.
type NotImplementedFileSystem struct {
}

var _ FileSystem = &NotImplementedFileSystem{}

func (fs *NotImplementedFileSystem) ReadDir(
	ctx context.Context,
	op *ReadDirOp) error {
	return Unsupported
}

func (fs *NotImplementedFileSystem) Unlink(
	ctx context.Context,
	op *UnlinkOp) error {
	return Unsupported
}

func (fs *NotImplementedFileSystem) MkDir(
	ctx context.Context,
	op *MkDirOp) error {
	return Unsupported
}

func (fs *NotImplementedFileSystem) RmDir(
	ctx context.Context,
	op *RmDirOp) error {
	return Unsupported
}

func (fs *NotImplementedFileSystem) Stat(
	ctx context.Context,
	op *StatOp) error {
	return Unsupported
}

func (fs *NotImplementedFileSystem) CreateFile(
	ctx context.Context,
	op *CreateFileOp) error {
	return Unsupported
}

func (fs *NotImplementedFileSystem) OpenFile(
	ctx context.Context,
	op *OpenFileOp) error {
	return Unsupported
}

// Like NotImplementedFileSystem, for AppStore.
type NotImplementedAppStore struct {
}

var _ AppStore = &NotImplementedAppStore{}

func (s *NotImplementedAppStore) List(
	ctx context.Context,
	op *ListAppsOp) error {
	return Unsupported
}

func (s *NotImplementedAppStore) Stat(
	ctx context.Context,
	op *StatAppOp) error {
	return Unsupported
}

func (s *NotImplementedAppStore) Delete(
	ctx context.Context,
	op *DeleteAppOp) error {
	return Unsupported
}

func (s *NotImplementedAppStore) Create(
	ctx context.Context,
	op *CreateAppOp) error {
	return Unsupported
}

func (s *NotImplementedAppStore) Open(
	ctx context.Context,
	op *OpenAppOp) error {
	return Unsupported
}
