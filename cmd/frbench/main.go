// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"
	_ "go.uber.org/automaxprocs"

	_ "github.com/fileretrieval/fileretrieval/internal/slogutil"
	"github.com/fileretrieval/fileretrieval/lib/ingest"
	"github.com/fileretrieval/fileretrieval/lib/protocol"
	"github.com/fileretrieval/fileretrieval/lib/sync"
)

// probeQueries run after indexing completes: two single terms and one
// conjunctive probe. The AND literal is split client side.
var probeQueries = []string{"the", "Worms", "distortion AND adaptation"}

func main() {
	app := cli.NewApp()
	app.Name = "frbench"
	app.Usage = "Benchmark driver: index one dataset per client in parallel, then run probe searches"
	app.ArgsUsage = "<server_ip> <server_port> <num_clients> <dataset>..."
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	args := c.Args()
	if len(args) < 4 {
		return fmt.Errorf("usage: %s %s", c.App.Name, c.App.ArgsUsage)
	}

	addr := net.JoinHostPort(args[0], args[1])
	numClients, err := strconv.Atoi(args[2])
	if err != nil || numClients < 1 {
		return fmt.Errorf("invalid number of clients: %q", args[2])
	}
	datasets := args[3:]
	if len(datasets) != numClients {
		return fmt.Errorf("number of client datasets (%d) does not match the number of clients (%d)", len(datasets), numClients)
	}

	conns := make([]*protocol.Conn, numClients)
	for i := range conns {
		conn, err := protocol.Dial(addr)
		if err != nil {
			return fmt.Errorf("connecting client %d: %w", i+1, err)
		}
		conns[i] = conn
		defer conn.Close()
	}

	start := time.Now()
	bytesIndexed := make([]int64, numClients)

	wg := sync.NewWaitGroup()
	for i := range conns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := ingest.IndexFolder(context.Background(), conns[i], datasets[i], ingest.Config{
				ClientID: strconv.Itoa(i + 1),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Client %d: indexing %s: %v\n", i+1, datasets[i], err)
				return
			}
			bytesIndexed[i] = result.TotalBytes
		}(i)
	}
	wg.Wait()

	var totalBytes int64
	for _, n := range bytesIndexed {
		totalBytes += n
	}
	fmt.Printf("\nCompleted indexing %d bytes of data\n", totalBytes)
	fmt.Printf("Completed indexing in %.2f seconds\n", time.Since(start).Seconds())

	for _, query := range probeQueries {
		performSearch(conns[0], query)
	}

	for _, conn := range conns {
		conn.Quit()
	}
	return nil
}

func performSearch(conn *protocol.Conn, query string) {
	fmt.Printf("\nSearching %s\n", query)

	terms := strings.Split(query, " AND ")
	start := time.Now()
	reply, err := conn.Search(protocol.SearchRequest{Terms: terms})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search %q: %v\n", query, err)
		return
	}

	fmt.Printf("Search completed in %.2f seconds\n", time.Since(start).Seconds())
	fmt.Printf("Search results (top %d out of %d):\n", len(reply.Documents), reply.TotalResults)
	for _, doc := range reply.Documents {
		fmt.Printf("* %s: %s:%d\n", doc.ClientID, doc.DocumentPath, doc.Frequency)
	}
}
