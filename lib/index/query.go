// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package index

import (
	"sort"
)

// A Result is one ranked search hit: the document record plus the summed
// frequency of all query terms within it.
type Result struct {
	Path      string
	Frequency int64
	Origin    string
}

// Query runs a conjunctive multi-term search: a document matches only if
// every non-empty term has a posting for it, and it is scored by the sum of
// those frequencies. Terms with no postings at all are skipped rather than
// eliminating every candidate. Results are sorted by descending score (ties
// by ascending document id) and trimmed to limit.
func (s *Store) Query(terms []string, limit int) []Result {
	var combined map[int64]int64

	for _, term := range terms {
		if term == "" {
			continue
		}
		postings := s.LookupIndex(term)
		if len(postings) == 0 {
			continue
		}

		if combined == nil {
			combined = make(map[int64]int64, len(postings))
			for _, p := range postings {
				combined[p.DocID] = p.Frequency
			}
			continue
		}

		next := make(map[int64]int64)
		for _, p := range postings {
			if sum, ok := combined[p.DocID]; ok {
				next[p.DocID] = sum + p.Frequency
			}
		}
		combined = next
	}

	if len(combined) == 0 {
		return nil
	}

	type scored struct {
		docID int64
		sum   int64
	}
	ranked := make([]scored, 0, len(combined))
	for id, sum := range combined {
		ranked = append(ranked, scored{id, sum})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].sum != ranked[b].sum {
			return ranked[a].sum > ranked[b].sum
		}
		return ranked[a].docID < ranked[b].docID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]Result, len(ranked))
	for i, r := range ranked {
		doc := s.GetDocument(r.docID)
		results[i] = Result{Path: doc.Path, Frequency: r.sum, Origin: doc.Origin}
	}
	return results
}
