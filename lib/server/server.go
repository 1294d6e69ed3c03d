// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package server implements the index server: an accept loop that spawns
// one worker per client connection, the per-connection request loop, and
// the shared index store plumbing.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/fileretrieval/fileretrieval/internal/slogutil"
	"github.com/fileretrieval/fileretrieval/lib/index"
	"github.com/fileretrieval/fileretrieval/lib/registry"
	"github.com/fileretrieval/fileretrieval/lib/sync"
)

// acceptPollInterval bounds how long a shutdown can go unnoticed while the
// dispatcher waits for a new connection.
const acceptPollInterval = time.Second

// DefaultDelay is the artificial pause between receiving a request and
// dispatching it, smoothing burst contention.
const DefaultDelay = 50 * time.Millisecond

type Config struct {
	// Addr is the TCP listen address, e.g. ":12345".
	Addr string
	// Delay overrides DefaultDelay when set. Negative disables the pause.
	Delay time.Duration
}

func (c Config) delay() time.Duration {
	switch {
	case c.Delay < 0:
		return 0
	case c.Delay == 0:
		return DefaultDelay
	default:
		return c.Delay
	}
}

// Server implements suture.Service. Serve accepts connections until the
// context is cancelled, then closes the remaining client connections and
// joins the workers.
type Server struct {
	cfg      Config
	store    *index.Store
	registry *registry.Registry

	mut      sync.Mutex
	addr     net.Addr
	inflight map[net.Conn]struct{}
}

func New(cfg Config, store *index.Store, reg *registry.Registry) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		registry: reg,
		mut:      sync.NewMutex(),
		inflight: make(map[net.Conn]struct{}),
	}
}

// Addr returns the bound listen address, or nil before Serve has bound it.
func (s *Server) Addr() net.Addr {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.addr
}

func (s *Server) String() string {
	return "server.Server@" + s.cfg.Addr
}

func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	tcpListener := listener.(*net.TCPListener)
	s.mut.Lock()
	s.addr = listener.Addr()
	s.mut.Unlock()
	slog.Info("Server listening", slog.String("addr", listener.Addr().String()))

	workers := sync.NewWaitGroup()
	defer workers.Wait()
	defer s.closeInflight()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// The deadline makes Accept a poll, so cancellation is observed
		// within acceptPollInterval.
		if err := tcpListener.SetDeadline(time.Now().Add(acceptPollInterval)); err != nil {
			return err
		}
		conn, err := tcpListener.Accept()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			slog.Warn("Accepting connection", slogutil.Error(err))
			continue
		}

		name := s.register(conn)
		metricConnectionsAccepted.Inc()
		slog.Info("Client connected", slog.String("client", name), slog.String("remote", conn.RemoteAddr().String()))

		workers.Add(1)
		go func() {
			defer workers.Done()
			s.serveConn(conn, name)
		}()
	}
}

func (s *Server) register(conn net.Conn) string {
	var ip string
	var port int
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		ip = addr.IP.String()
		port = addr.Port
	}
	name := s.registry.Add(ip, port)

	s.mut.Lock()
	s.inflight[conn] = struct{}{}
	s.mut.Unlock()
	return name
}

func (s *Server) deregister(conn net.Conn) {
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		s.registry.Remove(addr.IP.String(), addr.Port)
	}
	s.mut.Lock()
	delete(s.inflight, conn)
	s.mut.Unlock()
	conn.Close()
}

// closeInflight force-closes the remaining client connections so that
// workers blocked reading a frame fail out and can be joined.
func (s *Server) closeInflight() {
	s.mut.Lock()
	defer s.mut.Unlock()
	for conn := range s.inflight {
		conn.Close()
	}
}
