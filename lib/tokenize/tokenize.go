// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tokenize splits document contents into terms. Indexing and search
// must agree bit for bit on what a term is, so this is the only tokenizer in
// the system.
package tokenize

// minTermLen is exclusive; a run of exactly this many characters is dropped.
const minTermLen = 2

// Tokenize returns the number of occurrences of each term in the buffer. A
// term is a maximal run of ASCII letters and digits longer than two
// characters; every other byte is a separator. Matching is case sensitive
// and no normalization is applied.
func Tokenize(bs []byte) map[string]int32 {
	freqs := make(map[string]int32)
	start := -1
	for i, b := range bs {
		if isAlnum(b) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start > minTermLen {
			freqs[string(bs[start:i])]++
		}
		start = -1
	}
	if start >= 0 && len(bs)-start > minTermLen {
		freqs[string(bs[start:])]++
	}
	return freqs
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
