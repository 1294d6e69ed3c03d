// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol

import (
	"bufio"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/fileretrieval/fileretrieval/lib/sync"
)

// Conn is the client side of a connection to the index server. It may be
// shared by several ingestion workers; the connection mutex is held from
// just before a request is sent until its reply has been received, so each
// request/reply cycle owns the socket exclusively.
type Conn struct {
	conn net.Conn
	cr   *countingReader
	cw   *countingWriter
	br   *bufio.Reader

	mut    sync.Mutex
	closed atomic.Bool
}

// Dial connects to the index server at the given address.
func Dial(addr string) (*Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// NewConn wraps an established connection.
func NewConn(conn net.Conn) *Conn {
	cr := &countingReader{Reader: conn}
	cw := &countingWriter{Writer: conn}
	return &Conn{
		conn: conn,
		cr:   cr,
		cw:   cw,
		br:   bufio.NewReader(cr),
		mut:  sync.NewMutex(),
	}
}

// Index sends an INDEX request and waits for the server's acknowledgement.
// Any reply frame counts as success.
func (c *Conn) Index(req IndexRequest) error {
	body, err := req.MarshalXDR()
	if err != nil {
		return fmt.Errorf("marshalling index request: %w", err)
	}
	_, err = c.roundTrip(append([]byte(TagIndex), body...))
	return err
}

// Search sends a SEARCH request and returns the server's reply. A
// zero-length reply frame means no matches and yields an empty SearchReply.
func (c *Conn) Search(req SearchRequest) (SearchReply, error) {
	body, err := req.MarshalXDR()
	if err != nil {
		return SearchReply{}, fmt.Errorf("marshalling search request: %w", err)
	}

	replyBuf, err := c.roundTrip(append([]byte(TagSearch), body...))
	if err != nil {
		return SearchReply{}, err
	}
	if len(replyBuf) == 0 {
		return SearchReply{}, nil
	}

	var reply SearchReply
	if err := reply.UnmarshalXDR(replyBuf); err != nil {
		return SearchReply{}, fmt.Errorf("unmarshalling search reply: %w", err)
	}
	return reply, nil
}

// Quit tells the server to drop this connection from its registry. No reply
// is expected.
func (c *Conn) Quit() error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mut.Lock()
	defer c.mut.Unlock()
	return WriteFrame(c.cw, []byte(QuitPayload))
}

// Close closes the underlying socket. It deliberately does not take the
// connection mutex: a request blocked on a reply holds that mutex, and
// closing the socket is what fails the blocked read out.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return ErrClosed
	}
	return c.conn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Statistics returns the byte counts seen on this connection.
func (c *Conn) Statistics() (in, out int64) {
	return c.cr.Tot(), c.cw.Tot()
}

func (c *Conn) roundTrip(payload []byte) ([]byte, error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := WriteFrame(c.cw, payload); err != nil {
		return nil, err
	}
	return ReadFrame(c.br)
}
