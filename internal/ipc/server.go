package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kabegame/kabegame-sub003/internal/subscription"
)

// probeTimeout bounds the already-running probe's connect and read each,
// per spec §4.7's "100 ms timeout each on connect and response".
const probeTimeout = 100 * time.Millisecond

// ErrAlreadyRunning is returned by Listen when a live daemon answered the
// already-running probe at addr.
var ErrAlreadyRunning = errors.New("ipc: another daemon instance is already running")

// Server is the platform-abstracted IPC listener (spec §4.7): a Unix
// domain socket on POSIX, a named pipe on Windows (see server_unix.go /
// server_windows.go for the platform-specific listen step).
type Server struct {
	dispatcher *Dispatcher
	subs       *subscription.Manager
	log        *logrus.Logger
}

// NewServer builds a Server ready to Serve on a platform listener.
func NewServer(dispatcher *Dispatcher, subs *subscription.Manager, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{dispatcher: dispatcher, subs: subs, log: log}
}

// Serve accepts connections from ln until it is closed or returns an
// error, running handleConnection for each on its own goroutine. It never
// returns nil: a clean shutdown closes ln from another goroutine, which
// surfaces here as the listener's own "use of closed network connection"
// error, and the caller is expected to treat that as expected shutdown.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go handleConnection(conn, s.dispatcher, s.subs, s.log)
	}
}

// ProbeAlreadyRunning dials network/addr (via net.DialTimeout, so network
// must be a type net.Dial understands — "unix" on POSIX) and attempts a
// short Status round-trip, per spec §4.7's "already-running" probe: a
// successful reply means a live daemon already owns that endpoint.
func ProbeAlreadyRunning(network, addr string) bool {
	return probeWith(func() (net.Conn, error) {
		return net.DialTimeout(network, addr, probeTimeout)
	})
}

// probeWith runs the already-running round-trip over a connection
// produced by dial, letting the Windows named-pipe transport supply its
// own dialer (winio.DialPipe) where net.DialTimeout's network names
// don't apply.
func probeWith(dial func() (net.Conn, error)) bool {
	conn, err := dial()
	if err != nil {
		return false
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(probeTimeout))

	reqID := uint64(0)
	if err := WriteFrame(conn, Request{Type: ReqStatus, RequestID: &reqID}); err != nil {
		return false
	}

	var resp Response
	if err := ReadFrame(bufio.NewReader(conn), &resp); err != nil {
		return false
	}
	return resp.OK
}

// fmtAddr formats a human-readable description of a bind target for
// error messages.
func fmtAddr(network, addr string) string {
	return fmt.Sprintf("%s:%s", network, addr)
}
