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

// Package badgelink implements the device side of BadgeLink, a
// request/response protocol a host uses to manage the files and apps stored
// on a badge over a framed byte stream.
//
// The primary elements of interest are:
//
//  *  Server, which answers requests using a storage.FileSystem and a
//     storage.AppStore. It serves each connection against a Session of its
//     own.
//
//  *  Session, which holds one peer's negotiated protocol version and its
//     single transfer slot. A sync packet resets it, and losing the
//     connection aborts its transfer.
//
//  *  Connection, which frames and decodes packets over any io.ReadWriter:
//     a serial device, a TCP connection or a websocket.
//
// Uploads and downloads are streamed in chunks of at most wire.MaxChunkSize
// bytes and verified with CRC-32. On protocol version 1 the device reports a
// download's checksum before the first chunk; on version 2 it reports it when
// the transfer finishes.
//
// Set the -badgelink.debug flag to log every packet to stderr.
package badgelink
