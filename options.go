// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultMaxConnectTime is how long a Conn keeps trying to pair when
// Connect is given no timeout.
const DefaultMaxConnectTime = time.Second

// EphemeralPortBase is the value NextEphemeralPort counts up from.
const EphemeralPortBase = 49152

type options struct {
	logger         *zap.Logger
	clock          clock.Clock
	registerer     prometheus.Registerer
	maxConnectTime time.Duration
}

func defaultOptions() options {
	return options{
		logger:         zap.NewNop(),
		clock:          clock.New(),
		maxConnectTime: DefaultMaxConnectTime,
	}
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the logger. Pairing outcomes are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used to measure pairing deadlines and to time
// the queues created by Connect and Accept.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRegisterer registers the registry's metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithMaxConnectTime sets the initial value of MaxConnectTime.
func WithMaxConnectTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxConnectTime = d
		}
	}
}
