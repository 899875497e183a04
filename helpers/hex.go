package helpers

import (
	"encoding/hex"
	"strings"
)

// MustHex decodes hex ignoring spaces, "02 05 2a" is fine.
func MustHex(s string) []byte {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		panic(err)
	}
	return b
}
