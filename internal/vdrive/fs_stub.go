//go:build !linux && !darwin

package vdrive

import "github.com/kabegame/kabegame-sub003/internal/errorx"

// mountImpl on platforms without a go-fuse binding (Windows and anything
// else) refuses the mount, mirroring the original's own
// virtual_drive/drive_service/stub.rs: "当前平台暂不支持虚拟盘".
func mountImpl(_ *Handler, _ string) (func() error, error) {
	return nil, errorx.New(errorx.Forbidden, "virtual drive is not supported on this platform")
}
