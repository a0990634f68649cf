package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SymbolKey creates the stable identifier shared by every declaration and the
// definition of one symbol. scope carries the linkage (language, package
// directory, or file for internal symbols); name is the qualified name.
func SymbolKey(scope, name string) string {
	input := fmt.Sprintf("%s:%s", scope, name)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
