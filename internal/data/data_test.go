package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestMoveTowards(t *testing.T) {
	start := Vec2{}
	target := Vec2{X: 12}

	step := MoveTowards(start, target, 5)
	assert.InDelta(t, 5.0, step.X, 1e-9)
	assert.InDelta(t, 0.0, step.Y, 1e-9)

	assert.Equal(t, target, MoveTowards(Vec2{X: 10}, target, 5), "never overshoots")
	assert.Equal(t, start, MoveTowards(start, target, 0))
	assert.Equal(t, target, MoveTowards(target, target, 0))

	diag := MoveTowards(Vec2{}, Vec2{X: 3, Y: 4}, 2.5)
	assert.InDelta(t, 1.5, diag.X, 1e-9)
	assert.InDelta(t, 2.0, diag.Y, 1e-9)
	assert.InDelta(t, 5.0, Distance(Vec2{}, Vec2{X: 3, Y: 4}), 1e-9)
}

func TestLoadDestinationTable(t *testing.T) {
	p := writeFile(t, "destinations.yaml", `
- id: exit
  position: { x: 0, y: 0 }
- id: reception
  position: { x: 6, y: 1.5 }
  note: counter
`)
	tbl, err := LoadDestinationTable(p)
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Count())
	assert.Equal(t, []DestinationID{Exit, Reception}, tbl.IDs())
	pos, err := tbl.Resolve(Reception)
	require.NoError(t, err)
	assert.Equal(t, Vec2{X: 6, Y: 1.5}, pos)
	assert.NoError(t, tbl.Require(Exit, Reception))
}

func TestResolveUnknownDestination(t *testing.T) {
	tbl, err := NewDestinationTable([]DestinationEntry{{ID: Exit}})
	require.NoError(t, err)

	_, err = tbl.Resolve("cellar")
	assert.ErrorIs(t, err, ErrUnknownDestination)
	assert.ErrorIs(t, tbl.Require(Exit, Reception), ErrUnknownDestination)
}

func TestDestinationTableRejectsBadEntries(t *testing.T) {
	_, err := NewDestinationTable([]DestinationEntry{{ID: ""}})
	assert.Error(t, err)

	_, err = NewDestinationTable([]DestinationEntry{{ID: Exit}, {ID: Exit}})
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadTemplateTable(t *testing.T) {
	p := writeFile(t, "customer_templates.yaml", `
- name: Farmhand
  sprite: farmhand.png
  spawn_weight: 6
- name: Baroness
  customer_type: noble
  spawn_weight: 1
`)
	tbl, err := LoadTemplateTable(p)
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Count())
	assert.Equal(t, "Farmhand", tbl.All()[0].Name)
	assert.Equal(t, CustomerLocal, tbl.Get("Farmhand").Type, "type defaults to local")
	assert.Equal(t, CustomerNoble, tbl.Get("Baroness").Type)
	assert.Nil(t, tbl.Get("Nobody"))
}

func TestTemplateTableValidation(t *testing.T) {
	cases := map[string][]CustomerTemplate{
		"missing name":    {{SpawnWeight: 1}},
		"duplicate":       {{Name: "a", SpawnWeight: 1}, {Name: "a", SpawnWeight: 2}},
		"negative weight": {{Name: "a", SpawnWeight: -1}},
		"unknown type":    {{Name: "a", Type: "pirate"}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTemplateTable(entries)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadDestinationTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	_, err = LoadTemplateTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
