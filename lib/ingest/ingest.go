// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ingest implements the client side indexing pipeline: walk a
// directory tree, tokenize every regular file and ship the term frequencies
// to the index server.
package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/fileretrieval/fileretrieval/internal/slogutil"
	"github.com/fileretrieval/fileretrieval/lib/protocol"
	"github.com/fileretrieval/fileretrieval/lib/sync"
	"github.com/fileretrieval/fileretrieval/lib/tokenize"
)

// DefaultWorkers is the size of the ingestion worker pool.
const DefaultWorkers = 6

type Config struct {
	// ClientID is copied into every IndexRequest.
	ClientID string
	// Workers overrides the pool size when > 0.
	Workers int
}

type Result struct {
	// TotalBytes is the summed size of the files whose send and
	// acknowledgement both completed.
	TotalBytes int64
	// Elapsed is wall clock time from just before the walk to after the
	// last worker finished.
	Elapsed time.Duration
}

// IndexFolder walks root recursively and indexes every regular file over
// the given connection. The workers share the connection; each send-and-ack
// cycle holds it exclusively. Unreadable files and failed sends are logged
// and skipped, aborting only the affected file.
func IndexFolder(ctx context.Context, conn *protocol.Conn, root string, cfg Config) (Result, error) {
	start := time.Now()

	paths, err := collectFiles(root)
	if err != nil {
		return Result{}, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	inbox := make(chan string)
	totalBytes := xsync.NewCounter()

	wg := sync.NewWaitGroup()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			indexFiles(ctx, conn, cfg.ClientID, inbox, totalBytes)
		}()
	}

loop:
	for _, path := range paths {
		select {
		case inbox <- path:
		case <-ctx.Done():
			break loop
		}
	}
	close(inbox)
	wg.Wait()

	wireIn, wireOut := conn.Statistics()
	slog.Debug("Folder indexed",
		slog.String("root", root),
		slog.Int("files", len(paths)),
		slog.Int64("bytes", totalBytes.Value()),
		slog.Int64("wireIn", wireIn),
		slog.Int64("wireOut", wireOut))

	return Result{
		TotalBytes: totalBytes.Value(),
		Elapsed:    time.Since(start),
	}, ctx.Err()
}

func collectFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func indexFiles(ctx context.Context, conn *protocol.Conn, clientID string, inbox <-chan string, totalBytes *xsync.Counter) {
	for {
		select {
		case path, ok := <-inbox:
			if !ok {
				return
			}

			content, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("Cannot read file, skipping", slog.String("path", path), slogutil.Error(err))
				continue
			}

			req := protocol.IndexRequest{
				ClientID:        clientID,
				DocumentPath:    path,
				WordFrequencies: tokenize.Tokenize(content),
			}
			if err := conn.Index(req); err != nil {
				slog.Warn("Failed to index file", slog.String("path", path), slogutil.Error(err))
				continue
			}

			totalBytes.Add(int64(len(content)))

		case <-ctx.Done():
			return
		}
	}
}
