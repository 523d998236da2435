package pak

import (
	"crypto/aes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// AESKey is a 256-bit index key.
type AESKey [32]byte

// ParseAESKey accepts either a 0x-prefixed hex literal or base64, the
// two spellings game communities circulate keys in.
func ParseAESKey(s string) (AESKey, error) {
	var key AESKey
	var raw []byte
	var err error
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		raw, err = hex.DecodeString(rest)
	} else if len(s) == 64 && isHex(s) {
		raw, err = hex.DecodeString(s)
	} else {
		raw, err = base64.StdEncoding.DecodeString(s)
	}
	if err != nil {
		return key, fmt.Errorf("parse aes key: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("parse aes key: got %d bytes, want %d", len(raw), len(key))
	}
	copy(key[:], raw)
	return key, nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// encryptIndex applies AES-256-ECB in place, zero-padding the buffer
// to the block size first. ECB over index bytes is what the engine
// does; this is a format requirement, not a crypto choice.
func encryptIndex(key AESKey, data []byte) ([]byte, error) {
	c, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	if pad := len(data) % aes.BlockSize; pad != 0 {
		data = append(data, make([]byte, aes.BlockSize-pad)...)
	}
	for off := 0; off < len(data); off += aes.BlockSize {
		c.Encrypt(data[off:off+aes.BlockSize], data[off:off+aes.BlockSize])
	}
	return data, nil
}

func decryptIndex(key AESKey, data []byte) error {
	if len(data)%aes.BlockSize != 0 {
		return fmt.Errorf("encrypted index not block aligned (%d bytes)", len(data))
	}
	c, err := aes.NewCipher(key[:])
	if err != nil {
		return err
	}
	for off := 0; off < len(data); off += aes.BlockSize {
		c.Decrypt(data[off:off+aes.BlockSize], data[off:off+aes.BlockSize])
	}
	return nil
}
