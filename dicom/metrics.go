// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the work done by parsers. A single Metrics may be shared by parsers running on
// different goroutines. A nil *Metrics records nothing.
type Metrics struct {
	attributes     *prometheus.CounterVec
	bytesConsumed  prometheus.Counter
	parseCalls     *prometheus.CounterVec
	valueFragments prometheus.Counter
}

// NewMetrics creates the parser metrics and registers them with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attributes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dicom_parser_attributes_total",
			Help: "Total number of attribute headers decoded, by the control returned by the handler.",
		}, []string{"control"}),
		bytesConsumed: f.NewCounter(prometheus.CounterOpts{
			Name: "dicom_parser_bytes_consumed_total",
			Help: "Total number of input bytes consumed by data set parsers.",
		}),
		parseCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dicom_parser_parse_calls_total",
			Help: "Total number of calls to a data set parser, by resulting state.",
		}, []string{"state"}),
		valueFragments: f.NewCounter(prometheus.CounterOpts{
			Name: "dicom_parser_value_fragments_total",
			Help: "Total number of value fragments delivered to handlers.",
		}),
	}
}

func (m *Metrics) observeHeader(c Control) {
	if m == nil {
		return
	}
	m.attributes.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) observeFragment() {
	if m == nil {
		return
	}
	m.valueFragments.Inc()
}

func (m *Metrics) observeCall(result ParseResult) {
	if m == nil {
		return
	}
	m.parseCalls.WithLabelValues(result.State.String()).Inc()
	m.bytesConsumed.Add(float64(result.BytesConsumed))
}
