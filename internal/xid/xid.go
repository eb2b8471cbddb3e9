package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const invoiceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}

// Invoice builds a human-facing invoice code: "TRX-" plus 10 random
// uppercase alphanumerics. Uniqueness is enforced by the store; a collision
// there is treated as fatal, never retried silently.
func Invoice() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("TRX-%d", time.Now().UnixNano())
	}
	code := make([]byte, len(buf))
	for i, b := range buf {
		code[i] = invoiceAlphabet[int(b)%len(invoiceAlphabet)]
	}
	return "TRX-" + string(code)
}
