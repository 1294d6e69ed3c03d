// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sync

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	threshold = 100 * time.Millisecond

	// We make an exception in this package and have an actual "if debug {
	// ... }" variable, as it may be rather performance critical and does
	// nonstandard things (from a debug logging PoV).
	debug = strings.Contains(os.Getenv("FRTRACE"), "sync")
)

func init() {
	if n, _ := strconv.Atoi(os.Getenv("FRLOCKTHRESHOLD")); n > 0 {
		threshold = time.Duration(n) * time.Millisecond
	}
}
