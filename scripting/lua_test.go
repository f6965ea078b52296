package scripting

import (
	"testing"

	"github.com/drake/gotelnet"
)

func TestEngineHandlerForUnregisteredOptionIsNil(t *testing.T) {
	e := New()
	defer e.Close()
	if h := e.HandlerFor(telnet.OptCharset); h != nil {
		t.Fatalf("expected nil handler for unregistered option")
	}
}

func TestEngineRegisteredLuaHandlerIsInvoked(t *testing.T) {
	e := New()
	defer e.Close()

	script := `
gotelnet.register_handler(42, function(payload)
	return "echo:" .. payload
end)
`
	if err := e.L.DoString(script); err != nil {
		t.Fatalf("unexpected script error: %v", err)
	}

	h := e.HandlerFor(telnet.Option(42))
	if h == nil {
		t.Fatalf("expected handler registered for option 42")
	}
	got := h(telnet.Option(42), []byte("hi"))
	if string(got) != "echo:hi" {
		t.Fatalf("got %q, want \"echo:hi\"", got)
	}
}

func TestLoadDirToleratesMissingDirectory(t *testing.T) {
	e := New()
	defer e.Close()
	if err := e.LoadDir("/nonexistent/path/for/gotelnet/handlers"); err != nil {
		t.Fatalf("expected missing directory to be tolerated, got %v", err)
	}
}
