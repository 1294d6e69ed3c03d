// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slogutil sets up the process-wide slog default and provides per
// package log level control via the FRTRACE environment variable:
//
//	FRTRACE="server,ingest"          # server and ingest at DEBUG level
//	FRTRACE="server:WARN,index:DEBUG"
package slogutil

import (
	"log/slog"
	"os"
	"strings"
)

var globalLevels = &levelTracker{
	levels: make(map[string]slog.Level),
}

func init() {
	slog.SetDefault(slog.New(&pkgLevelHandler{
		inner: slog.NewTextHandler(logWriter(), &slog.HandlerOptions{Level: slog.LevelDebug}),
	}))
	SetLevelOverrides(os.Getenv("FRTRACE"))
}

func logWriter() interface{ Write([]byte) (int, error) } {
	if os.Getenv("LOGGER_DISCARD") != "" {
		// Hack to completely disable logging, for example when running
		// benchmarks.
		return discardWriter{}
	}
	return os.Stdout
}

type discardWriter struct{}

func (discardWriter) Write(bs []byte) (int, error) { return len(bs), nil }

// Error returns an attr for the given error, so that errors are logged under
// a consistent key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func SetDefaultLevel(level slog.Level) {
	globalLevels.SetDefault(level)
}

func SetPackageLevel(pkg string, level slog.Level) {
	globalLevels.Set(pkg, level)
}

// SetLevelOverrides parses a comma separated list of package names,
// optionally with a colon-separated level, and applies them. A bare package
// name means DEBUG.
func SetLevelOverrides(trace string) {
	for _, pkg := range strings.Split(trace, ",") {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		level := slog.LevelDebug
		if cutPkg, levelStr, ok := strings.Cut(pkg, ":"); ok {
			pkg = cutPkg
			if err := level.UnmarshalText([]byte(levelStr)); err != nil {
				slog.Warn("Bad log level requested in FRTRACE", slog.String("pkg", pkg), slog.String("level", levelStr), Error(err))
				continue
			}
		}
		globalLevels.Set(pkg, level)
	}
}
