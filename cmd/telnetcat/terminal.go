//go:build linux || darwin

package main

import (
	"golang.org/x/sys/unix"
)

// rawTerminal puts stdin into raw mode for the duration of the session (no
// line buffering, no local echo) so NAWS/ECHO negotiation with the peer is
// the only thing controlling what the user sees, and restores the saved
// termios on restore.
type rawTerminal struct {
	fd     int
	saved  *unix.Termios
}

func enableRawMode(fd int) (*rawTerminal, error) {
	saved, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}

	raw := *saved
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, err
	}
	return &rawTerminal{fd: fd, saved: saved}, nil
}

func (t *rawTerminal) restore() error {
	return unix.IoctlSetTermios(t.fd, ioctlSetTermios, t.saved)
}

// isTTY reports whether fd refers to a terminal.
func isTTY(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	return err == nil
}
