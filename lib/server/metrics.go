// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileretrieval",
		Subsystem: "server",
		Name:      "connections_accepted_total",
		Help:      "Total number of client connections accepted",
	})
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fileretrieval",
		Subsystem: "server",
		Name:      "requests_total",
		Help:      "Total number of requests processed, by type",
	}, []string{"type"})
	metricSearchResults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileretrieval",
		Subsystem: "server",
		Name:      "search_results_total",
		Help:      "Total number of search result documents served",
	})
)
