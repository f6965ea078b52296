// Package config is the single configuration structure consumed by the
// Stream Adapter (§6), plus the on-disk layout for optional Lua scripting
// config. It stays a plain struct with defaulting functions, matching
// teacher's config package (XDG directory resolution, no flag/viper
// parsing) rather than reaching for a configuration framework — CLI flag
// parsing is explicitly out of CORE scope.
package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/drake/gotelnet"
)

// Dir returns the gotelnet configuration directory (XDG_CONFIG_HOME on
// Unix, APPDATA on Windows), used only by the optional scripting package to
// locate user-supplied option handler scripts.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "gotelnet")
}

// HandlersDir returns the directory scripting.Engine loads *.lua option
// handlers from by default.
func HandlersDir() string {
	return filepath.Join(Dir(), "handlers")
}

// defaultAYTResponse is sent when the peer asks "Are You There" and the
// caller hasn't supplied one.
const defaultAYTResponse = "Telnet system is active."

// DefaultMaxSubnegBytes bounds the subnegotiation payload of any option the
// registry has no descriptor for. A registered descriptor's MaxSubnegBytes
// always applies instead, and 0 there stays unbounded. The value matches
// spec.md's "discouraged default is 1024".
const DefaultMaxSubnegBytes = 1024

// ErrorLogger receives every recoverable protocol error the Stream Adapter
// surfaces, for callers that want to log without handling each Read error
// individually.
type ErrorLogger func(code telnet.Code, message string)

// UnknownOptionHandler decides whether to accept or reject negotiation of
// an option this process has no descriptor for.
type UnknownOptionHandler func(id telnet.Option) bool

// CommandHandler reacts to a bare command byte that maps to a processing
// signal (GA, EOR, EC, EL, AO, IP, BRK, DM) arriving on the stream. When a
// handler is configured for the command, the signal is consumed: it is not
// posted on the Signals sideband and the Read continues. NOP and AYT never
// reach a CommandHandler.
type CommandHandler func(cmd telnet.Command)

// Config bundles every pluggable policy the CORE needs from its host (§6).
type Config struct {
	UnknownOptionHandler  UnknownOptionHandler
	ErrorLogger           ErrorLogger
	CommandHandlers       map[telnet.Command]CommandHandler
	AYTResponse           string
	DefaultMaxSubnegBytes int
}

// DefaultConfig returns the package defaults: reject unknown options, log
// errors to stderr via the standard library logger (teacher's
// debug.Monitor does the same — log.New(os.Stderr, "", log.LstdFlags)), the
// RFC-854-ish stock AYT reply, and a 1024-byte subnegotiation default.
func DefaultConfig() Config {
	logger := log.New(os.Stderr, "[telnet] ", log.LstdFlags)
	return Config{
		UnknownOptionHandler:  func(telnet.Option) bool { return false },
		ErrorLogger:           func(code telnet.Code, message string) { logger.Printf("%s: %s", code, message) },
		CommandHandlers:       map[telnet.Command]CommandHandler{},
		AYTResponse:           defaultAYTResponse,
		DefaultMaxSubnegBytes: DefaultMaxSubnegBytes,
	}
}

// LogError dispatches to ErrorLogger, tolerating a nil logger (a Config
// built by hand rather than via DefaultConfig).
func (c Config) LogError(code telnet.Code, message string) {
	if c.ErrorLogger != nil {
		c.ErrorLogger(code, message)
	}
}
