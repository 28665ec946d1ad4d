package world

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/tavernsim/server/internal/data"
)

// ErrNoTemplates is returned when a customer is requested from an empty registry.
var ErrNoTemplates = errors.New("no customer templates")

// SpawnWeigher overrides the spawn weight of a template.
type SpawnWeigher interface {
	SpawnWeight(tpl *data.CustomerTemplate) float64
}

// CustomerFactory picks a template by weight and places the new customer at
// the exit, where every guest walks in from.
type CustomerFactory struct {
	world     *State
	templates *data.TemplateTable
	dests     DestinationResolver
	rng       *rand.Rand
	weigher   SpawnWeigher // nil = use each template's spawn_weight
}

func NewCustomerFactory(ws *State, templates *data.TemplateTable, dests DestinationResolver, rng *rand.Rand, weigher SpawnWeigher) *CustomerFactory {
	return &CustomerFactory{
		world:     ws,
		templates: templates,
		dests:     dests,
		rng:       rng,
		weigher:   weigher,
	}
}

// Create adds a new customer to the world at the exit position.
func (f *CustomerFactory) Create() (*Customer, error) {
	tpl, err := f.SelectTemplate()
	if err != nil {
		return nil, err
	}
	start, err := f.dests.Resolve(data.Exit)
	if err != nil {
		return nil, fmt.Errorf("customer start position: %w", err)
	}
	return f.world.AddCustomer(tpl, start), nil
}

// SelectTemplate draws a template with probability proportional to its weight.
func (f *CustomerFactory) SelectTemplate() (*data.CustomerTemplate, error) {
	all := f.templates.All()
	if len(all) == 0 {
		return nil, ErrNoTemplates
	}
	weights := make([]float64, len(all))
	total := 0.0
	for i, tpl := range all {
		w := tpl.SpawnWeight
		if f.weigher != nil {
			w = f.weigher.SpawnWeight(tpl)
		}
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	draw := f.rng.Float64() * total
	return all[SelectTemplate(weights, draw)], nil
}

// SelectTemplate scans cumulative weights and returns the index of the first
// entry whose cumulative weight is ≥ draw. If nothing qualifies (draw beyond
// the total) it falls back to index 0.
func SelectTemplate(weights []float64, draw float64) int {
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if cumulative >= draw {
			return i
		}
	}
	return 0
}
