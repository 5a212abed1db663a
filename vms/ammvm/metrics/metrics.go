// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/txs"
)

const (
	eventLabel   = "event"
	outcomeLabel = "outcome"

	outcomeAccepted = "accepted"
	outcomeFailed   = "failed"
)

var _ events.Subscriber = (*Metrics)(nil)

// Metrics records committed events and transaction outcomes.
type Metrics struct {
	events  *prometheus.CounterVec
	txs     *prometheus.CounterVec
	blocks  prometheus.Counter
	height  prometheus.Gauge
	mempool prometheus.Gauge
}

func New(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events",
				Help:      "number of committed events by name",
			},
			[]string{eventLabel},
		),
		txs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "txs",
				Help:      "number of executed transactions by type and outcome",
			},
			[]string{txLabel, outcomeLabel},
		),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_accepted",
			Help:      "number of accepted blocks",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "height",
			Help:      "height of the last accepted block",
		}),
		mempool: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_txs",
			Help:      "number of transactions waiting in the mempool",
		}),
	}
	err := errors.Join(
		registerer.Register(m.events),
		registerer.Register(m.txs),
		registerer.Register(m.blocks),
		registerer.Register(m.height),
		registerer.Register(m.mempool),
	)
	return m, err
}

func (m *Metrics) Notify(e events.Event) {
	m.events.WithLabelValues(e.Name()).Inc()
}

// MarkTx records the outcome of executing tx.
func (m *Metrics) MarkTx(tx *txs.Tx, err error) {
	outcome := outcomeAccepted
	if err != nil {
		outcome = outcomeFailed
	}
	m.txs.WithLabelValues(TxLabel(tx), outcome).Inc()
}

// MarkAccepted records an accepted block at height.
func (m *Metrics) MarkAccepted(height uint64) {
	m.blocks.Inc()
	m.height.Set(float64(height))
}

func (m *Metrics) SetMempoolSize(size int) {
	m.mempool.Set(float64(size))
}
