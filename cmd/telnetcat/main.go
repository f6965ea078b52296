// Command telnetcat is a minimal interactive Telnet client exercising the
// full CORE stack end to end: a real TCP Transport, the Stream Adapter's
// Read/Write/RequestEnable surface, pluggable subnegotiation handlers (both
// Go-native and Lua-scripted), and the sideband signal channel. Styled
// status output follows teacher's lipgloss usage for its TUI chrome,
// narrowed here to plain status lines since a full bubbletea program is out
// of scope for a protocol-library demo.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/config"
	"github.com/drake/gotelnet/encode"
	"github.com/drake/gotelnet/negotiate"
	"github.com/drake/gotelnet/option"
	"github.com/drake/gotelnet/scripting"
	"github.com/drake/gotelnet/stream"
)

var (
	styleStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	styleErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: telnetcat host:port")
		os.Exit(2)
	}
	addr := os.Args[1]

	if err := run(addr); err != nil {
		fmt.Fprintln(os.Stderr, styleErr.Render(err.Error()))
		os.Exit(1)
	}
}

func run(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	registry := option.NewDefaultRegistry()
	cfg := config.DefaultConfig()
	cfg.ErrorLogger = func(code telnet.Code, message string) {
		fmt.Fprintln(os.Stderr, styleWarn.Render(fmt.Sprintf("[%s] %s", code, message)))
	}

	s := stream.New(stream.NewNetConn(conn), registry, cfg)

	width, height := 80, 24
	if w, h, err := terminalSize(); err == nil {
		width, height = w, h
	}
	s.RegisterSubnegHandler(telnet.OptNAWS, func(opt telnet.Option, payload []byte) []byte {
		return encode.Subnegotiation(telnet.OptNAWS, option.EncodeNAWS(uint16(width), uint16(height)))
	})
	s.RegisterSubnegHandler(telnet.OptTerminalType, scripting.TerminalTypeHandler())
	s.RegisterSubnegHandler(telnet.OptTerminalSpeed, scripting.TerminalSpeedHandler(""))

	lua := scripting.New()
	defer lua.Close()
	if err := lua.LoadDir(config.HandlersDir()); err != nil {
		fmt.Fprintln(os.Stderr, styleWarn.Render("scripting: "+err.Error()))
	}
	for id := 0; id < 256; id++ {
		if h := lua.HandlerFor(telnet.Option(id)); h != nil {
			s.RegisterSubnegHandler(telnet.Option(id), h)
		}
	}

	s.RequestEnable(ctx, negotiate.SideUs, telnet.OptNAWS)
	s.RequestEnable(ctx, negotiate.SideUs, telnet.OptTerminalType)
	s.RequestEnable(ctx, negotiate.SideThem, telnet.OptSuppressGoAhead)

	var raw *rawTerminal
	if fd := int(os.Stdin.Fd()); isTTY(fd) {
		raw, err = enableRawMode(fd)
		if err == nil {
			defer raw.restore()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go relaySignals(s)
	go relayStdin(ctx, s)

	return readLoop(ctx, s)
}

// readLoop pulls application bytes from the Stream and prints them,
// buffering partial lines via outputBuffer the way teacher's readLoop feeds
// OutputBuffer before emitting NetLine/NetPrompt events.
func readLoop(ctx context.Context, s *stream.Stream) error {
	out := newOutputBuffer()
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := s.Read(ctx, buf)
		if n > 0 {
			for _, line := range out.receive(buf[:n]) {
				fmt.Println(line)
			}
			if prompt := out.prompt(false); prompt != "" {
				fmt.Print(prompt)
			}
		}
		if err != nil {
			if !s.Healthy() {
				return err
			}
			fmt.Fprintln(os.Stderr, styleErr.Render(err.Error()))
		}
	}
}

// relaySignals prints the sideband of non-error processing signals (GA,
// EOR, IP, ...) as status lines.
func relaySignals(s *stream.Stream) {
	for sig := range s.Signals() {
		fmt.Fprintln(os.Stderr, styleStatus.Render("-- "+sig.String()+" --"))
	}
}

// relayStdin reads interactive input line by line and writes it to the
// Stream, CRLF-terminated per RFC 854.
func relayStdin(ctx context.Context, s *stream.Stream) {
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			if _, werr := s.Write(ctx, []byte(line+"\r\n")); werr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, styleErr.Render(err.Error()))
			}
			return
		}
	}
}

func terminalSize() (width, height int, err error) {
	if v := os.Getenv("COLUMNS"); v != "" {
		if w, perr := strconv.Atoi(v); perr == nil {
			width = w
		}
	}
	if v := os.Getenv("LINES"); v != "" {
		if h, perr := strconv.Atoi(v); perr == nil {
			height = h
		}
	}
	if width == 0 || height == 0 {
		return 80, 24, fmt.Errorf("terminal size unavailable")
	}
	return width, height, nil
}
