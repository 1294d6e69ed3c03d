// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package index

import (
	"fmt"
	"testing"

	"github.com/d4l3k/messagediff"
)

// queryStore indexes three documents:
//
//	/a.txt (client_1): foo 3, bar 1
//	/b.txt (client_1): foo 1
//	/c.txt (client_2): foo 2, bar 2, baz 1
func queryStore() *Store {
	s := NewStore()
	a := s.PutDocument("/a.txt", "client_1")
	b := s.PutDocument("/b.txt", "client_1")
	c := s.PutDocument("/c.txt", "client_2")
	s.UpdateIndex(a, map[string]int64{"foo": 3, "bar": 1})
	s.UpdateIndex(b, map[string]int64{"foo": 1})
	s.UpdateIndex(c, map[string]int64{"foo": 2, "bar": 2, "baz": 1})
	return s
}

func TestQuerySingleTerm(t *testing.T) {
	s := queryStore()

	expected := []Result{
		{Path: "/a.txt", Frequency: 3, Origin: "client_1"},
		{Path: "/c.txt", Frequency: 2, Origin: "client_2"},
		{Path: "/b.txt", Frequency: 1, Origin: "client_1"},
	}
	if diff, equal := messagediff.PrettyDiff(expected, s.Query([]string{"foo"}, 10)); !equal {
		t.Errorf("single term: %s", diff)
	}
}

func TestQueryConjunctive(t *testing.T) {
	s := queryStore()

	// Only /a.txt and /c.txt contain both terms; scores are the sums.
	// Equal sums tie-break on ascending document id, so /a.txt (id 1) first.
	expected := []Result{
		{Path: "/a.txt", Frequency: 4, Origin: "client_1"},
		{Path: "/c.txt", Frequency: 4, Origin: "client_2"},
	}
	if diff, equal := messagediff.PrettyDiff(expected, s.Query([]string{"foo", "bar"}, 10)); !equal {
		t.Errorf("conjunctive: %s", diff)
	}

	expected = []Result{
		{Path: "/c.txt", Frequency: 5, Origin: "client_2"},
	}
	if diff, equal := messagediff.PrettyDiff(expected, s.Query([]string{"foo", "bar", "baz"}, 10)); !equal {
		t.Errorf("triple conjunctive: %s", diff)
	}
}

func TestQueryUnknownTermSkipped(t *testing.T) {
	s := queryStore()

	// A term with no postings is skipped instead of eliminating all hits,
	// so this is equivalent to querying bar alone.
	withUnknown := s.Query([]string{"bar", "nosuchterm"}, 10)
	plain := s.Query([]string{"bar"}, 10)
	if diff, equal := messagediff.PrettyDiff(plain, withUnknown); !equal {
		t.Errorf("unknown term changed the result: %s", diff)
	}

	if res := s.Query([]string{"nosuchterm"}, 10); res != nil {
		t.Errorf("expected nil for an all-unknown query, got %v", res)
	}
}

func TestQueryEmpty(t *testing.T) {
	s := queryStore()

	if res := s.Query(nil, 10); res != nil {
		t.Errorf("expected nil for an empty query, got %v", res)
	}
	if res := s.Query([]string{"", ""}, 10); res != nil {
		t.Errorf("expected nil for blank terms, got %v", res)
	}
}

func TestQueryRankingAndLimit(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 15; i++ {
		id := s.PutDocument(fmt.Sprintf("/doc%d.txt", i), "client_1")
		s.UpdateIndex(id, map[string]int64{"term": int64(i)})
	}

	res := s.Query([]string{"term"}, 10)
	if len(res) != 10 {
		t.Fatalf("got %d results, expected 10", len(res))
	}
	for i, r := range res {
		expected := int64(15 - i)
		if r.Frequency != expected {
			t.Errorf("result %d: frequency %d, expected %d", i, r.Frequency, expected)
		}
		if want := fmt.Sprintf("/doc%d.txt", expected); r.Path != want {
			t.Errorf("result %d: path %s, expected %s", i, r.Path, want)
		}
	}
}
