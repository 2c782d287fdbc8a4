package provider

import (
	"fmt"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
)

func errNotSupported(op string) error {
	return errorx.New(errorx.Forbidden, fmt.Sprintf("%s not supported here", op))
}
