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

package badgelink

import (
	"log"

	"github.com/jacobsa/timeutil"
)

// The highest protocol version this package speaks.
const ServerVersion uint16 = 2

// Optional configuration accepted by NewServer and NewConnection. The zero
// value is a reasonable default.
type ServerConfig struct {
	// The highest protocol version the server will negotiate. Zero means
	// ServerVersion; larger values are clamped to it. Pinning a lower version
	// emulates older firmware.
	MaxVersion uint16

	// Answer VersionReq with StatusNotSupported, like firmware that predates
	// version negotiation. Such a server always speaks version 1.
	LegacyMode bool

	// A logger to use for logging errors: unexpected backend failures, checksum
	// mismatches and aborted transfers. If nil, errors are written to stderr.
	ErrorLogger *log.Logger

	// A logger to use for logging every packet received and sent. If nil, a
	// logger that writes to stderr only when the badgelink.debug flag is set
	// is used.
	DebugLogger *log.Logger

	// The clock used to time requests. If nil, timeutil.RealClock() is used.
	Clock timeutil.Clock

	// The name of the OpenTelemetry tracer used for request spans. If empty,
	// the module path is used.
	TracerName string
}

const defaultTracerName = "github.com/badgelink/badgelink"

// Return a copy of the config with defaults filled in. A nil config yields
// all defaults.
func (c *ServerConfig) withDefaults() (out ServerConfig) {
	if c != nil {
		out = *c
	}

	if out.MaxVersion == 0 || out.MaxVersion > ServerVersion {
		out.MaxVersion = ServerVersion
	}

	if out.LegacyMode {
		out.MaxVersion = 1
	}

	if out.ErrorLogger == nil {
		out.ErrorLogger = getErrorLogger()
	}

	if out.DebugLogger == nil {
		out.DebugLogger = getDebugLogger()
	}

	if out.Clock == nil {
		out.Clock = timeutil.RealClock()
	}

	if out.TracerName == "" {
		out.TracerName = defaultTracerName
	}

	return
}
