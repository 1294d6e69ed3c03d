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
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/thejerf/suture/v4"
	_ "go.uber.org/automaxprocs"

	_ "github.com/fileretrieval/fileretrieval/internal/slogutil"
	"github.com/fileretrieval/fileretrieval/lib/index"
	"github.com/fileretrieval/fileretrieval/lib/registry"
	"github.com/fileretrieval/fileretrieval/lib/server"
)

type CLI struct {
	Port  int           `arg:"" help:"TCP port to listen on."`
	Delay time.Duration `help:"Artificial per-request processing delay." default:"50ms"`
}

func main() {
	var cli CLI
	kong.Parse(&cli, kong.Description("Document index server. Reads list and quit commands from stdin."))

	store := index.NewStore()
	reg := registry.New()
	srv := server.New(server.Config{
		Addr:  fmt.Sprintf(":%d", cli.Port),
		Delay: cli.Delay,
	}, store, reg)

	main := suture.NewSimple("main")
	main.Add(srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := main.ServeBackground(ctx)

	readCommands(reg)

	cancel()
	<-done
	fmt.Println("Server has shut down gracefully.")
}

func readCommands(reg *registry.Registry) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> <list | quit>  ")
		if !scanner.Scan() {
			return
		}
		command := strings.TrimSpace(scanner.Text())

		switch {
		case command == "quit":
			return

		case command == "list":
			clients := reg.List()
			if len(clients) == 0 {
				fmt.Println("No clients connected.")
				continue
			}
			for _, info := range clients {
				fmt.Println(info)
			}

		case command == "":

		default:
			fmt.Println("unrecognized command!")
		}
	}
}
