//go:build windows

package main

import "github.com/kabegame/kabegame-sub003/internal/apppaths"

// ipcPlatformAddr returns the argument ipc.Listen expects on this
// platform: a named pipe name.
func ipcPlatformAddr(paths apppaths.Paths) string {
	return paths.IPCPipeName
}
