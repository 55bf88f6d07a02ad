// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a *Registry to an fx application.
// A *zap.Logger, a prometheus.Registerer and a clock.Clock are used when
// the application supplies them. The registry is reset when the
// application stops.
var Module = fx.Module("qsock",
	fx.Provide(NewRegistryFromParams),
	fx.Invoke(registerLifecycle),
)

// RegistryParams are the optional dependencies of a Registry.
type RegistryParams struct {
	fx.In

	Logger     *zap.Logger           `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// NewRegistryFromParams creates a Registry from fx-supplied dependencies.
func NewRegistryFromParams(p RegistryParams) *Registry {
	return NewRegistry(
		WithLogger(p.Logger),
		WithRegisterer(p.Registerer),
		WithClock(p.Clock),
	)
}

func registerLifecycle(lc fx.Lifecycle, r *Registry) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			r.Reset()
			return nil
		},
	})
}
