// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"context"
	"log/slog"
	"path"
	"runtime"
	"strings"
	"sync"
)

// A levelTracker keeps track of the log level per package, defaulting to
// INFO for packages without an override.
type levelTracker struct {
	mut      sync.RWMutex
	defLevel slog.Level
	levels   map[string]slog.Level
}

func (t *levelTracker) Get(pkg string) slog.Level {
	t.mut.RLock()
	defer t.mut.RUnlock()
	if level, ok := t.levels[pkg]; ok {
		return level
	}
	return t.defLevel
}

func (t *levelTracker) Set(pkg string, level slog.Level) {
	t.mut.Lock()
	t.levels[pkg] = level
	t.mut.Unlock()
}

func (t *levelTracker) SetDefault(level slog.Level) {
	t.mut.Lock()
	t.defLevel = level
	t.mut.Unlock()
}

// pkgLevelHandler drops records below the level configured for the emitting
// package, then hands the rest to the inner handler. The package name is
// derived from the record's PC.
type pkgLevelHandler struct {
	inner slog.Handler
}

func (h *pkgLevelHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *pkgLevelHandler) Handle(ctx context.Context, rec slog.Record) error {
	fr := runtime.CallersFrames([]uintptr{rec.PC})
	if fram, _ := fr.Next(); fram.Function != "" {
		if globalLevels.Get(funcNameToPkg(fram.Function)) > rec.Level {
			return nil
		}
	}
	return h.inner.Handle(ctx, rec)
}

func (h *pkgLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &pkgLevelHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *pkgLevelHandler) WithGroup(name string) slog.Handler {
	return &pkgLevelHandler{inner: h.inner.WithGroup(name)}
}

func funcNameToPkg(fn string) string {
	// fn is e.g. "github.com/fileretrieval/fileretrieval/lib/server.(*Server).Serve"
	fn = path.Base(fn)
	pkg, _, _ := strings.Cut(fn, ".")
	return pkg
}
