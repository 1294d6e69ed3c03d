// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestCounting(t *testing.T) {
	inBefore, outBefore := TotalInOut()

	var buf bytes.Buffer
	cw := &countingWriter{Writer: &buf}
	if _, err := cw.Write([]byte("12345678")); err != nil {
		t.Fatal(err)
	}
	cr := &countingReader{Reader: &buf}
	if _, err := io.ReadAll(cr); err != nil {
		t.Fatal(err)
	}

	if cw.Tot() != 8 {
		t.Errorf("writer Tot = %d, expected 8", cw.Tot())
	}
	if cr.Tot() != 8 {
		t.Errorf("reader Tot = %d, expected 8", cr.Tot())
	}

	if since := time.Since(cw.Last()); since > time.Minute {
		t.Errorf("writer Last is %v old", since)
	}
	if since := time.Since(cr.Last()); since > time.Minute {
		t.Errorf("reader Last is %v old", since)
	}

	inAfter, outAfter := TotalInOut()
	if inAfter-inBefore != 8 {
		t.Errorf("total incoming grew by %d, expected 8", inAfter-inBefore)
	}
	if outAfter-outBefore != 8 {
		t.Errorf("total outgoing grew by %d, expected 8", outAfter-outBefore)
	}
}
