package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/tavernsim/server/internal/data"
)

// SpawnWeightFunc is the optional Lua hook that overrides template weights.
const SpawnWeightFunc = "calc_spawn_weight"

// Engine wraps a single gopher-lua VM for tunable game formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under scriptsDir.
// Missing directories are skipped, so an empty scripts dir yields an engine
// that falls back to data-table values everywhere.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// core helpers first, feature scripts after
	for _, sub := range []string{"core", "spawn"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasFunction reports whether a global Lua function with the given name exists.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// SpawnWeight calls calc_spawn_weight(template) when the scripts define it
// and returns the template's configured spawn_weight otherwise. Script
// errors and non-numeric results also fall back to the configured weight.
func (e *Engine) SpawnWeight(tpl *data.CustomerTemplate) float64 {
	fn, ok := e.vm.GetGlobal(SpawnWeightFunc).(*lua.LFunction)
	if !ok {
		return tpl.SpawnWeight
	}

	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(tpl.Name))
	t.RawSetString("sprite", lua.LString(tpl.Sprite))
	t.RawSetString("customer_type", lua.LString(string(tpl.Type)))
	t.RawSetString("base_weight", lua.LNumber(tpl.SpawnWeight))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_spawn_weight error", zap.String("template", tpl.Name), zap.Error(err))
		return tpl.SpawnWeight
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_spawn_weight returned non-number",
			zap.String("template", tpl.Name),
			zap.String("type", result.Type().String()))
		return tpl.SpawnWeight
	}
	return float64(n)
}
