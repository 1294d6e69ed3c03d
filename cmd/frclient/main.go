// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	_ "go.uber.org/automaxprocs"

	_ "github.com/fileretrieval/fileretrieval/internal/slogutil"
	"github.com/fileretrieval/fileretrieval/lib/ingest"
	"github.com/fileretrieval/fileretrieval/lib/protocol"
)

type CLI struct {
	Workers int `help:"Number of ingestion workers." default:"6"`
}

func main() {
	var cli CLI
	kong.Parse(&cli, kong.Description("Interactive client for the document index server."))

	var conn *protocol.Conn
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> <connect | index | search | quit>  ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "connect":
			if len(fields) != 3 {
				fmt.Println("Invalid connection command")
				continue
			}
			newConn, err := protocol.Dial(net.JoinHostPort(fields[1], fields[2]))
			if err != nil {
				fmt.Println("Failed to connect to the server!")
				continue
			}
			if conn != nil {
				conn.Close()
			}
			conn = newConn
			fmt.Println("Connection successful!")

		case "index":
			if len(fields) < 2 {
				fmt.Println("Please enter a valid folder path.")
				continue
			}
			if conn == nil {
				fmt.Println("Not connected to a server.")
				continue
			}
			result, err := ingest.IndexFolder(context.Background(), conn, strings.Join(fields[1:], " "), ingest.Config{
				Workers: cli.Workers,
			})
			if err != nil {
				fmt.Println("Indexing failed:", err)
				continue
			}
			fmt.Printf("Completed indexing %d bytes of data\n", result.TotalBytes)
			fmt.Printf("Completed indexing in %d seconds\n", int64(result.Elapsed.Round(time.Second).Seconds()))

		case "search":
			if len(fields) < 2 {
				fmt.Println("Please enter the search terms.")
				continue
			}
			if conn == nil {
				fmt.Println("Not connected to a server.")
				continue
			}
			start := time.Now()
			reply, err := conn.Search(protocol.SearchRequest{Terms: fields[1:]})
			if err != nil {
				fmt.Println("Search failed:", err)
				continue
			}
			fmt.Printf("\nSearch completed in %.2f seconds.\n", time.Since(start).Seconds())
			if len(reply.Documents) == 0 {
				fmt.Println("No results found")
				continue
			}
			for _, doc := range reply.Documents {
				fmt.Printf("%s: %s (Frequency: %d)\n", doc.ClientID, doc.DocumentPath, doc.Frequency)
			}

		case "quit":
			if conn != nil {
				conn.Quit()
				conn.Close()
			}
			return

		default:
			fmt.Println("unrecognized command!")
		}
	}
}
