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

//go:build !linux

package transport

import (
	"fmt"
	"os"
)

// Open a serial device for reading and writing. The line settings are left
// alone; configure the device with stty beforehand.
func OpenSerial(path string) (f *os.File, err error) {
	f, err = os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		err = fmt.Errorf("OpenFile: %w", err)
		return
	}

	return
}
