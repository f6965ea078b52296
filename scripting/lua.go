// Package scripting provides a pluggable Lua layer (gopher-lua) for
// subnegotiation handlers the static option/negotiate/stream packages can't
// anticipate ahead of time: a user script dictates how a given option's
// subnegotiation payload gets answered without a Go rebuild. This plays the
// same role teacher's engine/lua.go plays for MUD trigger/alias scripts,
// narrowed from a whole scripting surface (timers, regex, hooks) down to
// the one hook CORE needs: register_handler.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/stream"
)

// Engine owns one Lua VM and the per-option handler functions registered by
// loaded scripts. Like stream.Stream, an Engine is single-owner: callers
// serialize their own access if sharing one across goroutines.
type Engine struct {
	L             *lua.LState
	handlers      map[telnet.Option]*lua.LFunction
	gotelnetTable *lua.LTable
}

// New creates an Engine with a fresh Lua VM and the gotelnet.* host API
// installed.
func New() *Engine {
	e := &Engine{
		L:        lua.NewState(),
		handlers: make(map[telnet.Option]*lua.LFunction),
	}
	e.registerHostFuncs()
	return e
}

// Close releases the underlying Lua VM.
func (e *Engine) Close() {
	e.L.Close()
}

// LoadDir loads every *.lua file in dir in lexical order (matching
// teacher's LoadEmbeddedCore numeric-prefix convention, so a script named
// 00_echo.lua always registers before 10_naws.lua). A missing directory is
// not an error: scripting is optional.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading handler scripts in %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".lua") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := e.L.DoString(string(content)); err != nil {
			return fmt.Errorf("executing %s: %w", path, err)
		}
	}
	return nil
}

// registerHostFuncs installs the gotelnet table Lua scripts call into:
// gotelnet.log(msg) and gotelnet.register_handler(option, fn(payload) ->
// string|nil).
func (e *Engine) registerHostFuncs() {
	t := e.L.NewTable()
	e.L.SetGlobal("gotelnet", t)
	e.gotelnetTable = t

	e.L.SetField(t, "log", e.L.NewFunction(func(L *lua.LState) int {
		fmt.Fprintln(os.Stderr, "[lua] "+L.CheckString(1))
		return 0
	}))

	e.L.SetField(t, "register_handler", e.L.NewFunction(func(L *lua.LState) int {
		opt := telnet.Option(L.CheckInt(1))
		e.handlers[opt] = L.CheckFunction(2)
		return 0
	}))
}

// HandlerFor returns a stream.SubnegHandler backed by the Lua function opt
// was registered with, or nil if no loaded script claimed opt.
func (e *Engine) HandlerFor(opt telnet.Option) stream.SubnegHandler {
	fn, ok := e.handlers[opt]
	if !ok {
		return nil
	}
	return func(o telnet.Option, payload []byte) []byte {
		if err := e.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, lua.LString(string(payload))); err != nil {
			fmt.Fprintf(os.Stderr, "[lua] handler for option %v: %v\n", o, err)
			return nil
		}
		ret := e.L.Get(-1)
		e.L.Pop(1)
		if s, ok := ret.(lua.LString); ok {
			return []byte(string(s))
		}
		return nil
	}
}
