// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package protocol implements the request/reply wire protocol between
// clients and the index server.
//
// Every frame on the wire is a 4 byte big endian length followed by that
// many payload bytes. Client requests carry an ASCII tag: "INDEX:" or
// "SEARCH:" followed by the XDR encoded message, or the exact payload
// "QUIT". Server replies are untagged: the INDEX acknowledgement string, or
// an XDR encoded SearchReply where a zero length frame means no matches.
package protocol

// IndexRequest asks the server to register one document and merge its term
// frequencies into the inverted index.
type IndexRequest struct {
	ClientID        string
	DocumentPath    string
	WordFrequencies map[string]int32
}

// SearchRequest asks for a conjunctive search over the given terms.
type SearchRequest struct {
	Terms []string
}

// SearchReply carries the ranked results. ExecutionTime is written as 0.0
// by the server; clients measure round trip time themselves.
type SearchReply struct {
	ExecutionTime float64
	TotalResults  int32
	Documents     []ResultDocument
}

// ResultDocument is one ranked hit in a SearchReply.
type ResultDocument struct {
	DocumentPath string
	Frequency    int64
	ClientID     string
}
