// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package index implements the in-memory inverted index shared by all
// server workers: a registry of document records and a term to postings
// list map.
package index

import (
	"github.com/fileretrieval/fileretrieval/lib/sync"
)

// A Document records one INDEX event. Two requests for the same path yield
// two distinct documents; the store keeps events, not a set of unique paths.
type Document struct {
	ID     int64
	Path   string
	Origin string
}

// A Posting is one term occurrence count within one document.
type Posting struct {
	DocID     int64
	Frequency int64
}

// Store is safe for concurrent use. The documents map and the postings map
// are guarded by separate mutexes so that searches proceed concurrently
// with document registration. Lock order is documents before postings; no
// code path holds both at once.
type Store struct {
	docsMut   sync.Mutex
	documents map[int64]Document

	postMut  sync.Mutex
	postings map[string][]Posting
}

func NewStore() *Store {
	return &Store{
		docsMut:   sync.NewMutex(),
		documents: make(map[int64]Document),
		postMut:   sync.NewMutex(),
		postings:  make(map[string][]Posting),
	}
}

// PutDocument registers a new document and returns its id. Ids are dense
// and monotonic: the first document gets id 1.
func (s *Store) PutDocument(path, origin string) int64 {
	s.docsMut.Lock()
	defer s.docsMut.Unlock()

	id := int64(len(s.documents)) + 1
	s.documents[id] = Document{ID: id, Path: path, Origin: origin}
	metricDocumentsRegistered.Inc()
	return id
}

// GetDocument returns the record for the given id, or a zero Document if
// the id is unknown.
func (s *Store) GetDocument(id int64) Document {
	s.docsMut.Lock()
	defer s.docsMut.Unlock()
	return s.documents[id]
}

// NumDocuments returns the number of registered documents.
func (s *Store) NumDocuments() int {
	s.docsMut.Lock()
	defer s.docsMut.Unlock()
	return len(s.documents)
}

// UpdateIndex appends a posting for the given document to every term's
// postings list. Entries with a non-positive frequency are dropped. Each
// term's additions become visible atomically, though different terms of one
// call may become visible at different instants.
func (s *Store) UpdateIndex(docID int64, freqs map[string]int64) {
	s.postMut.Lock()
	defer s.postMut.Unlock()

	for term, freq := range freqs {
		if freq <= 0 {
			continue
		}
		s.postings[term] = insertPosting(s.postings[term], Posting{DocID: docID, Frequency: freq})
		metricPostingsAppended.Inc()
	}
}

// insertPosting keeps the list ordered by ascending document id. Requests
// are normally applied in id order so this is an append, but two
// connections that race between id assignment and the postings lock may
// arrive swapped.
func insertPosting(ps []Posting, p Posting) []Posting {
	if n := len(ps); n == 0 || ps[n-1].DocID < p.DocID {
		return append(ps, p)
	}
	i := len(ps)
	for i > 0 && ps[i-1].DocID > p.DocID {
		i--
	}
	ps = append(ps, Posting{})
	copy(ps[i+1:], ps[i:])
	ps[i] = p
	return ps
}

// LookupIndex returns a snapshot copy of the term's postings list, ordered
// by ascending document id. The result is nil for unknown terms.
func (s *Store) LookupIndex(term string) []Posting {
	s.postMut.Lock()
	defer s.postMut.Unlock()

	metricLookups.Inc()
	ps := s.postings[term]
	if len(ps) == 0 {
		return nil
	}
	res := make([]Posting, len(ps))
	copy(res, ps)
	return res
}
