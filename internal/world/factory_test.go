package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavernsim/server/internal/data"
)

type fixedWeigher map[string]float64

func (w fixedWeigher) SpawnWeight(tpl *data.CustomerTemplate) float64 { return w[tpl.Name] }

func templates(t *testing.T, entries ...data.CustomerTemplate) *data.TemplateTable {
	t.Helper()
	tbl, err := data.NewTemplateTable(entries)
	require.NoError(t, err)
	return tbl
}

func TestSelectTemplateCumulative(t *testing.T) {
	weights := []float64{1, 3, 6}

	assert.Equal(t, 2, SelectTemplate(weights, 7.5))
	assert.Equal(t, 0, SelectTemplate(weights, 0))
	assert.Equal(t, 0, SelectTemplate(weights, 1))
	assert.Equal(t, 1, SelectTemplate(weights, 1.0001))
	assert.Equal(t, 1, SelectTemplate(weights, 4))
	assert.Equal(t, 2, SelectTemplate(weights, 10))
}

func TestSelectTemplateFallsBackToFirst(t *testing.T) {
	assert.Equal(t, 0, SelectTemplate([]float64{1, 2}, 99))
	assert.Equal(t, 0, SelectTemplate([]float64{0, 0}, 0.5))
}

func TestFactoryCreatesAtExit(t *testing.T) {
	dests, err := data.NewDestinationTable([]data.DestinationEntry{
		{ID: data.Exit, Position: data.Vec2{X: -3, Y: 2}},
	})
	require.NoError(t, err)
	ws := NewState()
	f := NewCustomerFactory(ws, templates(t, data.CustomerTemplate{Name: "Farmhand", SpawnWeight: 1}),
		dests, rand.New(rand.NewSource(1)), nil)

	c, err := f.Create()
	require.NoError(t, err)

	assert.Equal(t, "Farmhand", c.Name())
	assert.Equal(t, data.Vec2{X: -3, Y: 2}, c.Position)
	assert.Equal(t, StateIdle, c.State)
	assert.Equal(t, 1, ws.CustomerCount())
}

func TestFactoryWithoutTemplates(t *testing.T) {
	f := NewCustomerFactory(NewState(), templates(t), testDestinations(t), rand.New(rand.NewSource(1)), nil)

	_, err := f.Create()
	assert.ErrorIs(t, err, ErrNoTemplates)
}

func TestFactoryWithoutExit(t *testing.T) {
	dests, err := data.NewDestinationTable(nil)
	require.NoError(t, err)
	f := NewCustomerFactory(NewState(), templates(t, data.CustomerTemplate{Name: "a", SpawnWeight: 1}),
		dests, rand.New(rand.NewSource(1)), nil)

	_, err = f.Create()
	assert.ErrorIs(t, err, data.ErrUnknownDestination)
}

func TestFactoryUsesWeigher(t *testing.T) {
	tbl := templates(t,
		data.CustomerTemplate{Name: "common", SpawnWeight: 100},
		data.CustomerTemplate{Name: "rare", SpawnWeight: 1},
	)
	f := NewCustomerFactory(NewState(), tbl, testDestinations(t), rand.New(rand.NewSource(7)),
		fixedWeigher{"common": 0, "rare": 5})

	for i := 0; i < 50; i++ {
		tpl, err := f.SelectTemplate()
		require.NoError(t, err)
		assert.Equal(t, "rare", tpl.Name)
	}
}

func TestFactoryClampsNegativeWeights(t *testing.T) {
	tbl := templates(t,
		data.CustomerTemplate{Name: "a", SpawnWeight: 1},
		data.CustomerTemplate{Name: "b", SpawnWeight: 1},
	)
	f := NewCustomerFactory(NewState(), tbl, testDestinations(t), rand.New(rand.NewSource(3)),
		fixedWeigher{"a": -10, "b": 2})

	for i := 0; i < 50; i++ {
		tpl, err := f.SelectTemplate()
		require.NoError(t, err)
		assert.Equal(t, "b", tpl.Name)
	}
}
