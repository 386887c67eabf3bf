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

// Package storage defines the backends a BadgeLink server talks to.
//
// The primary elements of interest are:
//
//   - The FileSystem and AppStore interfaces, which define the methods a
//     backend must implement.
//
//   - NotImplementedFileSystem and NotImplementedAppStore, which may be
//     embedded to obtain default implementations for all methods that are not
//     of interest to a particular backend.
//
//   - Kind, the closed set of failures a backend reports. The server maps each
//     to a protocol status.
package storage

import "context"

// An interface with a method for each filesystem op. Each method should fill
// in the output fields of the supplied op and return an error, which should
// carry a Kind when it is one of the expected failures.
//
// Paths are slash-separated and absolute. Methods may be called concurrently.
type FileSystem interface {
	ReadDir(ctx context.Context, op *ReadDirOp) error
	Unlink(ctx context.Context, op *UnlinkOp) error
	MkDir(ctx context.Context, op *MkDirOp) error
	RmDir(ctx context.Context, op *RmDirOp) error
	Stat(ctx context.Context, op *StatOp) error
	CreateFile(ctx context.Context, op *CreateFileOp) error
	OpenFile(ctx context.Context, op *OpenFileOp) error
}

// Like FileSystem, for the partition holding installed apps. Apps are
// identified by slug.
type AppStore interface {
	List(ctx context.Context, op *ListAppsOp) error
	Stat(ctx context.Context, op *StatAppOp) error
	Delete(ctx context.Context, op *DeleteAppOp) error
	Create(ctx context.Context, op *CreateAppOp) error
	Open(ctx context.Context, op *OpenAppOp) error
}
