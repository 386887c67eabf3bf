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
	"flag"
	"io"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"badgelink.debug",
	false,
	"Write every BadgeLink packet to stderr.")

const logFlags = log.Ldate | log.Ltime | log.Lmicroseconds

var (
	gDebugLogger *log.Logger
	gErrorLogger *log.Logger
	gLoggersOnce sync.Once
)

// The flag is consulted once, on first use. Binaries that never parse the
// standard flag set get a silent debug logger. Errors always go to stderr.
func initLoggers() {
	var writer io.Writer = io.Discard
	if *fEnableDebug {
		writer = os.Stderr
	}

	gDebugLogger = log.New(writer, "badgelink: debug: ", logFlags|log.Lshortfile)
	gErrorLogger = log.New(os.Stderr, "badgelink: error: ", logFlags)
}

func getDebugLogger() *log.Logger {
	gLoggersOnce.Do(initLoggers)
	return gDebugLogger
}

func getErrorLogger() *log.Logger {
	gLoggersOnce.Do(initLoggers)
	return gErrorLogger
}
