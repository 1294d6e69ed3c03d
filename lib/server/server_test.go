// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/d4l3k/messagediff"

	"github.com/fileretrieval/fileretrieval/lib/index"
	"github.com/fileretrieval/fileretrieval/lib/protocol"
	"github.com/fileretrieval/fileretrieval/lib/registry"
)

// startServer runs a delay-free server on a random port and returns it with
// its collaborators. The server is stopped when the test ends.
func startServer(t *testing.T) (*Server, *index.Store, *registry.Registry) {
	t.Helper()

	store := index.NewStore()
	reg := registry.New()
	srv := New(Config{Addr: "127.0.0.1:0", Delay: -1}, store, reg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait for the listener to bind.
	for i := 0; i < 100; i++ {
		if srv.Addr() != nil {
			return srv, store, reg
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not bind in time")
	return nil, nil, nil
}

func dial(t *testing.T, srv *Server) *protocol.Conn {
	t.Helper()
	conn, err := protocol.Dial(srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestIndexAndSearch(t *testing.T) {
	srv, store, _ := startServer(t)
	conn := dial(t, srv)

	err := conn.Index(protocol.IndexRequest{
		ClientID:        "1",
		DocumentPath:    "/data/file1.txt",
		WordFrequencies: map[string]int32{"foo": 2, "bar": 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	if n := store.NumDocuments(); n != 1 {
		t.Fatalf("NumDocuments = %d, expected 1", n)
	}

	reply, err := conn.Search(protocol.SearchRequest{Terms: []string{"foo"}})
	if err != nil {
		t.Fatal(err)
	}
	expected := protocol.SearchReply{
		TotalResults: 1,
		Documents: []protocol.ResultDocument{
			{DocumentPath: "/data/file1.txt", Frequency: 2, ClientID: "client_1"},
		},
	}
	if diff, equal := messagediff.PrettyDiff(expected, reply); !equal {
		t.Errorf("search reply: %s", diff)
	}
	if reply.ExecutionTime != 0 {
		t.Errorf("server set ExecutionTime %v, expected 0", reply.ExecutionTime)
	}
}

func TestSearchNoResults(t *testing.T) {
	srv, _, _ := startServer(t)
	conn := dial(t, srv)

	reply, err := conn.Search(protocol.SearchRequest{Terms: []string{"nothing"}})
	if err != nil {
		t.Fatal(err)
	}
	if diff, equal := messagediff.PrettyDiff(protocol.SearchReply{}, reply); !equal {
		t.Errorf("expected an empty reply: %s", diff)
	}
}

func TestConjunctiveSearch(t *testing.T) {
	srv, _, _ := startServer(t)
	conn := dial(t, srv)

	docs := []struct {
		path  string
		freqs map[string]int32
	}{
		{"/a.txt", map[string]int32{"foo": 3, "bar": 1}},
		{"/b.txt", map[string]int32{"foo": 1}},
		{"/c.txt", map[string]int32{"foo": 2, "bar": 4}},
	}
	for _, doc := range docs {
		err := conn.Index(protocol.IndexRequest{
			ClientID:        "1",
			DocumentPath:    doc.path,
			WordFrequencies: doc.freqs,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	reply, err := conn.Search(protocol.SearchRequest{Terms: []string{"foo", "bar"}})
	if err != nil {
		t.Fatal(err)
	}
	expected := protocol.SearchReply{
		TotalResults: 2,
		Documents: []protocol.ResultDocument{
			{DocumentPath: "/c.txt", Frequency: 6, ClientID: "client_1"},
			{DocumentPath: "/a.txt", Frequency: 4, ClientID: "client_1"},
		},
	}
	if diff, equal := messagediff.PrettyDiff(expected, reply); !equal {
		t.Errorf("conjunctive reply: %s", diff)
	}
}

func TestTwoClientsSamePath(t *testing.T) {
	srv, store, reg := startServer(t)
	first := dial(t, srv)
	second := dial(t, srv)

	// Both clients index the same path; the store records two events.
	for _, conn := range []*protocol.Conn{first, second} {
		err := conn.Index(protocol.IndexRequest{
			ClientID:        "x",
			DocumentPath:    "/shared.txt",
			WordFrequencies: map[string]int32{"common": 1},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if n := store.NumDocuments(); n != 2 {
		t.Fatalf("NumDocuments = %d, expected 2", n)
	}
	if n := reg.Len(); n != 2 {
		t.Fatalf("registry has %d clients, expected 2", n)
	}

	reply, err := first.Search(protocol.SearchRequest{Terms: []string{"common"}})
	if err != nil {
		t.Fatal(err)
	}
	if reply.TotalResults != 2 {
		t.Fatalf("TotalResults = %d, expected 2", reply.TotalResults)
	}
	origins := map[string]bool{}
	for _, doc := range reply.Documents {
		if doc.DocumentPath != "/shared.txt" {
			t.Errorf("unexpected path %q", doc.DocumentPath)
		}
		origins[doc.ClientID] = true
	}
	if !origins["client_1"] || !origins["client_2"] {
		t.Errorf("expected both client origins, got %v", origins)
	}
}

func TestMalformedRequestGetsReply(t *testing.T) {
	srv, store, _ := startServer(t)

	raw, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()

	// A tagged request whose body does not parse gets an empty reply frame
	// rather than silence, so a waiting client is never stranded.
	for _, tag := range []string{protocol.TagIndex, protocol.TagSearch} {
		garbage := append([]byte(tag), 0xff, 0xff, 0xff, 0xff)
		if err := protocol.WriteFrame(raw, garbage); err != nil {
			t.Fatal(err)
		}
		reply, err := protocol.ReadFrame(raw)
		if err != nil {
			t.Fatalf("%s garbage: %v", tag, err)
		}
		if reply != nil {
			t.Errorf("%s garbage: expected an empty reply frame, got %d bytes", tag, len(reply))
		}
	}

	// The connection stays usable afterwards.
	req := protocol.IndexRequest{ClientID: "1", DocumentPath: "/ok.txt", WordFrequencies: map[string]int32{"foo": 1}}
	body, err := req.MarshalXDR()
	if err != nil {
		t.Fatal(err)
	}
	if err := protocol.WriteFrame(raw, append([]byte(protocol.TagIndex), body...)); err != nil {
		t.Fatal(err)
	}
	reply, err := protocol.ReadFrame(raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(reply) != protocol.IndexAck {
		t.Errorf("reply %q, expected the index ack", reply)
	}
	if n := store.NumDocuments(); n != 1 {
		t.Errorf("NumDocuments = %d, expected 1", n)
	}
}

func TestQuitRemovesFromRegistry(t *testing.T) {
	srv, _, reg := startServer(t)
	conn := dial(t, srv)

	waitFor(t, "client to register", func() bool { return reg.Len() == 1 })

	if err := conn.Quit(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "client to deregister", func() bool { return reg.Len() == 0 })
}

func TestQuitIsExactMatch(t *testing.T) {
	srv, store, _ := startServer(t)
	conn := dial(t, srv)

	// An index request for a path containing QUIT is an ordinary request,
	// not a disconnect.
	err := conn.Index(protocol.IndexRequest{
		ClientID:        "1",
		DocumentPath:    "/data/QUIT.txt",
		WordFrequencies: map[string]int32{"quitting": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := store.NumDocuments(); n != 1 {
		t.Fatalf("NumDocuments = %d, expected 1", n)
	}

	// The connection must still work.
	if _, err := conn.Search(protocol.SearchRequest{Terms: []string{"quitting"}}); err != nil {
		t.Fatal(err)
	}
}

func TestDisconnectRemovesFromRegistry(t *testing.T) {
	srv, _, reg := startServer(t)
	conn := dial(t, srv)

	waitFor(t, "client to register", func() bool { return reg.Len() == 1 })

	conn.Close()
	waitFor(t, "client to deregister", func() bool { return reg.Len() == 0 })
}

func TestShutdownJoinsWorkers(t *testing.T) {
	store := index.NewStore()
	reg := registry.New()
	srv := New(Config{Addr: "127.0.0.1:0", Delay: -1}, store, reg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()
	for i := 0; srv.Addr() == nil; i++ {
		if i > 100 {
			t.Fatal("server did not bind in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A connected but idle client keeps a worker blocked in a read; shutdown
	// must close it out rather than wait forever.
	conn, err := protocol.Dial(srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	waitFor(t, "client to register", func() bool { return reg.Len() == 1 })

	start := time.Now()
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down in time")
	}
	// One accept poll interval plus scheduling slack.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("shutdown took %v", elapsed)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
