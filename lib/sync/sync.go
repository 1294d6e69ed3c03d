// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sync wraps the standard library sync primitives. When lock
// debugging is enabled the returned implementations log holders that keep a
// lock longer than the threshold.
package sync

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

type Mutex interface {
	Lock()
	Unlock()
}

type RWMutex interface {
	Mutex
	RLock()
	RUnlock()
}

type WaitGroup interface {
	Add(int)
	Done()
	Wait()
}

func NewMutex() Mutex {
	if debug {
		return &loggedMutex{}
	}
	return &sync.Mutex{}
}

func NewRWMutex() RWMutex {
	if debug {
		return &loggedRWMutex{}
	}
	return &sync.RWMutex{}
}

func NewWaitGroup() WaitGroup {
	if debug {
		return &loggedWaitGroup{}
	}
	return &sync.WaitGroup{}
}

type holder struct {
	at   string
	time time.Time
	goid int
}

func (h holder) String() string {
	if h.at == "" {
		return "not held"
	}
	return fmt.Sprintf("at %s goid: %d for %s", h.at, h.goid, time.Since(h.time))
}

type loggedMutex struct {
	sync.Mutex
	holder holder
}

func (m *loggedMutex) Lock() {
	m.Mutex.Lock()
	m.holder = getHolder()
}

func (m *loggedMutex) Unlock() {
	duration := time.Since(m.holder.time)
	if duration >= threshold {
		slog.Debug("Mutex held", "duration", duration, "holder", m.holder.String())
	}
	m.holder = holder{}
	m.Mutex.Unlock()
}

type loggedRWMutex struct {
	sync.RWMutex
	holder holder
}

func (m *loggedRWMutex) Lock() {
	start := time.Now()
	m.RWMutex.Lock()
	m.holder = getHolder()

	if duration := m.holder.time.Sub(start); duration > threshold {
		slog.Debug("RWMutex took a long time to lock", "duration", duration)
	}
}

func (m *loggedRWMutex) Unlock() {
	duration := time.Since(m.holder.time)
	if duration >= threshold {
		slog.Debug("RWMutex held", "duration", duration, "holder", m.holder.String())
	}
	m.holder = holder{}
	m.RWMutex.Unlock()
}

type loggedWaitGroup struct {
	sync.WaitGroup
}

func (wg *loggedWaitGroup) Wait() {
	start := time.Now()
	wg.WaitGroup.Wait()
	if duration := time.Since(start); duration >= threshold {
		slog.Debug("WaitGroup took a long time to complete", "duration", duration, "waiter", getHolder().String())
	}
}

func getHolder() holder {
	_, file, line, _ := runtime.Caller(2)
	return holder{
		at:   fmt.Sprintf("%s:%d", file, line),
		time: time.Now(),
		goid: goid(),
	}
}

func goid() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := string(buf[:n])
	var id int
	if _, err := fmt.Sscanf(idField, "goroutine %d ", &id); err != nil {
		return -1
	}
	return id
}
