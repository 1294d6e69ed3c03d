// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package registry tracks the clients currently connected to the server.
// Entries are added on accept and removed on QUIT or disconnect; the names
// assigned here become the origin recorded for every document a connection
// contributes.
package registry

import (
	"fmt"

	"github.com/fileretrieval/fileretrieval/lib/sync"
)

type Entry struct {
	Name string
	IP   string
	Port int
}

// Registry is mutated by the server workers and read by the command loop;
// all access is serialized under one mutex.
type Registry struct {
	mut     sync.Mutex
	entries []Entry
}

func New() *Registry {
	return &Registry{
		mut: sync.NewMutex(),
	}
}

// Add registers a connection and returns its assigned name, "client_" plus
// one past the current number of entries.
func (r *Registry) Add(ip string, port int) string {
	r.mut.Lock()
	defer r.mut.Unlock()

	name := fmt.Sprintf("client_%d", len(r.entries)+1)
	r.entries = append(r.entries, Entry{Name: name, IP: ip, Port: port})
	return name
}

// Remove drops the entry for the given peer address, if present. Matching
// is by address, not name: names derive from the registry size and can
// repeat after a removal, but a peer (ip, port) pair identifies exactly one
// live connection.
func (r *Registry) Remove(ip string, port int) {
	r.mut.Lock()
	defer r.mut.Unlock()

	for i, e := range r.entries {
		if e.IP == ip && e.Port == port {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// List renders the current entries for the server's list command.
func (r *Registry) List() []string {
	r.mut.Lock()
	defer r.mut.Unlock()

	list := make([]string, len(r.entries))
	for i, e := range r.entries {
		list[i] = fmt.Sprintf("%s: %s %d", e.Name, e.IP, e.Port)
	}
	return list
}

// Len returns the number of connected clients.
func (r *Registry) Len() int {
	r.mut.Lock()
	defer r.mut.Unlock()
	return len(r.entries)
}
