// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/fileretrieval/fileretrieval/internal/slogutil"
	"github.com/fileretrieval/fileretrieval/lib/protocol"
)

// maxSearchResults caps the number of documents in a search reply.
const maxSearchResults = 10

// serveConn runs the per-connection request loop. Requests on one
// connection are processed strictly in arrival order; replies go out in the
// same order.
func (s *Server) serveConn(conn net.Conn, name string) {
	defer s.deregister(conn)

	br := bufio.NewReader(conn)
	delay := s.cfg.delay()

	for {
		payload, err := protocol.ReadFrame(br)
		if err != nil {
			slog.Debug("Connection closed", slog.String("client", name), slogutil.Error(err))
			return
		}

		if delay > 0 {
			time.Sleep(delay)
		}

		switch {
		case bytes.HasPrefix(payload, []byte(protocol.TagIndex)):
			metricRequests.WithLabelValues("index").Inc()
			if !s.handleIndex(conn, name, payload[len(protocol.TagIndex):]) {
				return
			}

		case bytes.HasPrefix(payload, []byte(protocol.TagSearch)):
			metricRequests.WithLabelValues("search").Inc()
			if !s.handleSearch(conn, payload[len(protocol.TagSearch):]) {
				return
			}

		case string(payload) == protocol.QuitPayload:
			metricRequests.WithLabelValues("quit").Inc()
			slog.Info("Client disconnected", slog.String("client", name))
			return

		default:
			metricRequests.WithLabelValues("unknown").Inc()
			slog.Warn("Unknown request type", slog.String("client", name), slog.Int("len", len(payload)),
				slog.Any("prefix", slogutil.Expensive(func() any {
					return fmt.Sprintf("%.24q", payload)
				})))
		}
	}
}

// handleIndex registers the document, merges its postings and acknowledges.
// The document is registered before its postings become visible, so a
// concurrent lookup either misses the id or resolves it fully.
func (s *Server) handleIndex(conn net.Conn, name string, body []byte) bool {
	var req protocol.IndexRequest
	if err := req.UnmarshalXDR(body); err != nil {
		slog.Warn("Failed to parse index request", slog.String("client", name), slogutil.Error(err))
		// Still reply, or the client blocks forever waiting for one.
		return s.writeReply(conn, nil)
	}

	docID := s.store.PutDocument(req.DocumentPath, name)

	freqs := make(map[string]int64, len(req.WordFrequencies))
	for term, freq := range req.WordFrequencies {
		freqs[term] = int64(freq)
	}
	s.store.UpdateIndex(docID, freqs)

	if err := protocol.WriteFrame(conn, []byte(protocol.IndexAck)); err != nil {
		slog.Warn("Failed to send index ack", slog.String("client", name), slogutil.Error(err))
		return false
	}
	return true
}

// handleSearch runs the conjunctive query and sends the reply. No matches
// produce a zero length reply frame.
func (s *Server) handleSearch(conn net.Conn, body []byte) bool {
	var req protocol.SearchRequest
	if err := req.UnmarshalXDR(body); err != nil {
		slog.Warn("Failed to parse search request", slogutil.Error(err))
		return s.writeReply(conn, nil)
	}

	results := s.store.Query(req.Terms, maxSearchResults)
	metricSearchResults.Add(float64(len(results)))

	if len(results) == 0 {
		return s.writeReply(conn, nil)
	}

	reply := protocol.SearchReply{
		// The client measures round trip time itself.
		ExecutionTime: 0.0,
		TotalResults:  int32(len(results)),
		Documents:     make([]protocol.ResultDocument, len(results)),
	}
	for i, res := range results {
		reply.Documents[i] = protocol.ResultDocument{
			DocumentPath: res.Path,
			Frequency:    res.Frequency,
			ClientID:     res.Origin,
		}
	}

	buf, err := reply.MarshalXDR()
	if err != nil {
		slog.Warn("Failed to marshal search reply", slogutil.Error(err))
		return s.writeReply(conn, nil)
	}
	return s.writeReply(conn, buf)
}

func (s *Server) writeReply(conn net.Conn, payload []byte) bool {
	if err := protocol.WriteFrame(conn, payload); err != nil {
		slog.Warn("Failed to send reply", slogutil.Error(err))
		return false
	}
	return true
}
