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

package wire

import "fmt"

// Capacities of the bounded fields of the catalogue. They mirror the buffers
// of the device firmware; DecodePacket rejects inputs exceeding them and
// EncodePacket truncates strings to fit.
const (
	// Filesystem paths, in bytes.
	MaxPathLen = 256

	// Directory entry names and app titles, in bytes.
	MaxNameLen  = 128
	MaxTitleLen = 64

	// App slugs, in bytes.
	MaxSlugLen = 48

	// Transfer chunk payloads, in bytes.
	MaxChunkSize = 1024

	// Entries in a single list response.
	MaxListEntries = 16

	// The largest encoded packet either side may send. Every packet built
	// within the capacities above fits.
	MaxPacketSize = 4096
)

// A response status. The zero value is StatusOk.
type StatusCode int32

const (
	StatusOk StatusCode = iota
	StatusNotSupported
	StatusNotFound
	StatusMalformed
	StatusInternalError
	StatusIllState
	StatusNoSpace
	StatusNotEmpty
	StatusIsFile
	StatusIsDir
	StatusExists
)

var statusNames = [...]string{
	StatusOk:            "StatusOk",
	StatusNotSupported:  "StatusNotSupported",
	StatusNotFound:      "StatusNotFound",
	StatusMalformed:     "StatusMalformed",
	StatusInternalError: "StatusInternalError",
	StatusIllState:      "StatusIllState",
	StatusNoSpace:       "StatusNoSpace",
	StatusNotEmpty:      "StatusNotEmpty",
	StatusIsFile:        "StatusIsFile",
	StatusIsDir:         "StatusIsDir",
	StatusExists:        "StatusExists",
}

func (s StatusCode) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}

	return fmt.Sprintf("StatusCode(%d)", int32(s))
}

type FsActionType int32

const (
	FsActionList FsActionType = iota
	FsActionDelete
	FsActionMkdir
	FsActionUpload
	FsActionDownload
	FsActionStat
	FsActionCrc32
	FsActionGetUsage
	FsActionRmdir
)

var fsActionNames = [...]string{
	FsActionList:     "List",
	FsActionDelete:   "Delete",
	FsActionMkdir:    "Mkdir",
	FsActionUpload:   "Upload",
	FsActionDownload: "Download",
	FsActionStat:     "Stat",
	FsActionCrc32:    "Crc32",
	FsActionGetUsage: "GetUsage",
	FsActionRmdir:    "Rmdir",
}

func (t FsActionType) String() string {
	if t >= 0 && int(t) < len(fsActionNames) {
		return fsActionNames[t]
	}

	return fmt.Sprintf("FsActionType(%d)", int32(t))
}

type AppfsActionType int32

const (
	AppfsActionList AppfsActionType = iota
	AppfsActionDelete
	AppfsActionUpload
	AppfsActionDownload
	AppfsActionStat
	AppfsActionCrc32
	AppfsActionGetUsage
)

var appfsActionNames = [...]string{
	AppfsActionList:     "List",
	AppfsActionDelete:   "Delete",
	AppfsActionUpload:   "Upload",
	AppfsActionDownload: "Download",
	AppfsActionStat:     "Stat",
	AppfsActionCrc32:    "Crc32",
	AppfsActionGetUsage: "GetUsage",
}

func (t AppfsActionType) String() string {
	if t >= 0 && int(t) < len(appfsActionNames) {
		return appfsActionNames[t]
	}

	return fmt.Sprintf("AppfsActionType(%d)", int32(t))
}

// Transfer control commands, sent by the host while a transfer is active.
type XferCtrl int32

const (
	// Ask for the next download chunk.
	XferContinue XferCtrl = iota

	// Close the transfer and verify its checksum.
	XferFinish
)

func (c XferCtrl) String() string {
	switch c {
	case XferContinue:
		return "Continue"
	case XferFinish:
		return "Finish"
	default:
		return fmt.Sprintf("XferCtrl(%d)", int32(c))
	}
}
