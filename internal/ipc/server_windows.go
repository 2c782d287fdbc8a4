//go:build windows

package ipc

import (
	"context"
	"fmt"
	"net"

	winio "github.com/Microsoft/go-winio"
)

// pipeSecurityDescriptor grants LocalSystem, Administrators, and
// Authenticated Users access to the pipe, per spec §4.7. GA is generic
// all access; SY/BA/AU are the well-known LocalSystem/Administrators/
// Authenticated-Users SIDs.
const pipeSecurityDescriptor = "D:P(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;AU)"

// Listen opens a named pipe at \\.\pipe\<pipeName>, per spec §4.7. Unlike
// a Unix socket there is no stale file to clean up; a second
// winio.ListenPipe on an already-owned pipe name fails immediately, which
// the already-running probe disambiguates from a genuine bind error.
func Listen(pipeName string) (net.Listener, error) {
	path := `\\.\pipe\` + pipeName
	cfg := &winio.PipeConfig{SecurityDescriptor: pipeSecurityDescriptor}

	ln, err := winio.ListenPipe(path, cfg)
	if err != nil {
		if probeWith(func() (net.Conn, error) {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			return winio.DialPipeContext(ctx, path)
		}) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("ipc: bind %s: %w", fmtAddr("pipe", path), err)
	}
	return ln, nil
}
