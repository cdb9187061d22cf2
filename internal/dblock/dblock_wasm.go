//go:build js && wasm

package dblock

import (
	"fmt"
	"os"
)

func flockExclusive(f *os.File) error {
	return fmt.Errorf("dblock: file locking not supported in WASM")
}
