package main

import (
	"fmt"

	"github.com/dmitrijs2005/tokenvault/internal/cryptox"
)

// keygen prints a fresh base64-encoded AES-256 envelope key, suitable for
// the ENCRYPTION_KEY setting. It is printed exactly once and never stored.
func main() {
	fmt.Println(cryptox.EncodeKey(cryptox.GenerateKey()))
}
