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

// Package wire contains the BadgeLink packet catalogue and the codec that
// translates packets to and from their protobuf encoding.
//
// A packet is a tagged union: exactly one of a request, a response, or a sync
// marker. Requests are represented by the sealed Request interface, whose
// implementations are:
//
//  *  *VersionReq
//  *  *FsActionReq
//  *  *AppfsActionReq
//  *  *Chunk (an upload chunk)
//  *  *XferCtrlReq
//  *  *UnknownReq, produced by DecodePacket for tags this package does not
//     know, so that servers can answer them with StatusNotSupported.
//
// The schema is documented in badgelink.proto alongside this file. Encoding
// is done by hand with protowire rather than by generated code so that the
// bounds below are enforced while decoding, mirroring the fixed-size buffers
// used by device firmware.
package wire
