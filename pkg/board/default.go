package board

import (
	_ "embed"
)

//go:embed boards/default.yaml
var defaultBoard []byte

// Default returns the built-in single-device simulation board, for
// hosts started without a board file. It needs the "counter" driver
// registered at bringup time.
func Default() *Board {
	b, err := Parse(defaultBoard)
	if err != nil {
		panic("board: embedded default board: " + err.Error())
	}
	return b
}
