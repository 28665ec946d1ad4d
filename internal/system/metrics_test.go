package system

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavernsim/server/internal/config"
	"github.com/tavernsim/server/internal/core/event"
	"github.com/tavernsim/server/internal/metrics"
)

func TestMetricsSystemCountsLifecycle(t *testing.T) {
	collector := metrics.New()
	tv := newTavern(t, config.CustomerConfig{MaxPerDay: 10, MaxOnOneTime: 2}, nil)
	ms := NewMetricsSystem(tv.bus, tv.world, collector)
	require.NoError(t, ms.Initialize())

	tv.tick(t)
	tv.tick(t)
	require.NoError(t, ms.Update(time.Second))

	reg := collector.Registry()
	n, err := testutil.GatherAndCount(reg, "tavern_customers_spawned_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[f.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[f.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["tavern_customers_spawned_total"])
	assert.Equal(t, 2.0, values["tavern_customers_in_world"])
	assert.Equal(t, 4.0, values["tavern_movement_status_total"], "two InProgress and two Completed")

	tv.dayCycle.ChangeState(event.Evening)
	tv.tick(t)
	require.NoError(t, ms.Update(time.Second))

	families, err = reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		switch f.GetName() {
		case "tavern_customers_departed_total":
			assert.Equal(t, 2.0, f.GetMetric()[0].GetCounter().GetValue())
		case "tavern_customers_in_world":
			assert.Zero(t, f.GetMetric()[0].GetGauge().GetValue())
		}
	}

	require.NoError(t, ms.Dispose())
	assert.Equal(t, 1, event.SubscriberCount[event.CustomerSpawned](tv.bus), "only the test recorder remains")
}
