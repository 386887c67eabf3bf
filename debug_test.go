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
	"io"
	"log"

	. "github.com/jacobsa/ogletest"
)

type LoggerTest struct {
}

func init() { RegisterTestSuite(&LoggerTest{}) }

func (t *LoggerTest) DefaultsAreDistinct() {
	cfg := (*ServerConfig)(nil).withDefaults()

	ExpectEq("badgelink: error: ", cfg.ErrorLogger.Prefix())
	ExpectEq("badgelink: debug: ", cfg.DebugLogger.Prefix())
}

func (t *LoggerTest) SuppliedLoggersAreKept() {
	errorLogger := log.New(io.Discard, "", 0)
	cfg := (&ServerConfig{ErrorLogger: errorLogger}).withDefaults()

	ExpectEq(errorLogger, cfg.ErrorLogger)
	ExpectEq(getDebugLogger(), cfg.DebugLogger)
}
