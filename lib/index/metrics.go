// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricDocumentsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileretrieval",
		Subsystem: "index",
		Name:      "documents_registered_total",
		Help:      "Total number of documents registered in the store",
	})
	metricPostingsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileretrieval",
		Subsystem: "index",
		Name:      "postings_appended_total",
		Help:      "Total number of postings appended to term lists",
	})
	metricLookups = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileretrieval",
		Subsystem: "index",
		Name:      "lookups_total",
		Help:      "Total number of term lookups",
	})
)
