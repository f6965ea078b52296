package stream

import (
	"context"
	"net"
	"time"
)

// Transport is the byte-stream contract C6 consumes (§6): an async
// read_some/write_all pair. Cancellation-safe in the sense that cancelling
// ReadSome must not leave the connection half-read.
type Transport interface {
	// ReadSome reads at least one byte into buf, or returns an error.
	// Partial reads are allowed.
	ReadSome(ctx context.Context, buf []byte) (int, error)
	// WriteAll writes every byte of data, or returns an error.
	WriteAll(ctx context.Context, data []byte) (int, error)
}

// NetConn adapts a net.Conn (TCP, TLS, ...) to Transport, the way
// teacher's network/client.go drives a *net.TCPConn directly but with
// ctx's deadline applied as the connection deadline instead of a bare
// time.Duration. A ctx that is already done fails the call up front;
// cancelling ctx while a Read/Write is blocked does not interrupt it.
type NetConn struct {
	Conn net.Conn
}

// NewNetConn wraps conn as a Transport.
func NewNetConn(conn net.Conn) *NetConn {
	return &NetConn{Conn: conn}
}

func (n *NetConn) ReadSome(ctx context.Context, buf []byte) (int, error) {
	if err := n.applyDeadline(ctx, n.Conn.SetReadDeadline); err != nil {
		return 0, err
	}
	defer n.Conn.SetReadDeadline(time.Time{})
	return n.Conn.Read(buf)
}

func (n *NetConn) WriteAll(ctx context.Context, data []byte) (int, error) {
	if err := n.applyDeadline(ctx, n.Conn.SetWriteDeadline); err != nil {
		return 0, err
	}
	defer n.Conn.SetWriteDeadline(time.Time{})

	total := 0
	for total < len(data) {
		n2, err := n.Conn.Write(data[total:])
		total += n2
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// applyDeadline returns ctx's error if ctx is already done; otherwise it
// sets the connection deadline to ctx's deadline, or clears it when ctx has
// none. Only a ctx deadline bounds the following Read/Write; cancelling ctx
// after this point does not interrupt it (§5 "Timeouts are applied by the
// caller layering a timer on top").
func (n *NetConn) applyDeadline(ctx context.Context, setDeadline func(time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		return setDeadline(dl)
	}
	return setDeadline(time.Time{})
}
