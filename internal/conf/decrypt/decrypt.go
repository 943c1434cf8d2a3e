// Package decrypt decrypts configuration files sealed with NaCl secretbox.
package decrypt

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Decrypt opens a base64-encoded box whose first 24 bytes are the nonce.
// The key is truncated or zero-padded to 32 bytes.
func Decrypt(key string, byts []byte) ([]byte, error) {
	enc, err := base64.StdEncoding.DecodeString(string(byts))
	if err != nil {
		return nil, err
	}

	if len(enc) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("encrypted configuration is too short")
	}

	var secretKey [32]byte
	copy(secretKey[:], key)

	var nonce [nonceSize]byte
	copy(nonce[:], enc[:nonceSize])

	decrypted, ok := secretbox.Open(nil, enc[nonceSize:], &nonce, &secretKey)
	if !ok {
		return nil, fmt.Errorf("decryption error")
	}

	return decrypted, nil
}
