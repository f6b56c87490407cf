package order

import (
	"math/rand/v2"
	"time"
)

const (
	numberPrefix  = "ORD"
	numberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLen     = 4
)

// GenerateNumber builds an order number: "ORD", a second-resolution
// timestamp, and a 4-character random suffix, e.g. ORD20260901120000A7K2.
// The suffix keeps same-second collisions rare; storage still enforces
// uniqueness and the assembler regenerates on conflict.
func GenerateNumber(now time.Time) string {
	buf := make([]byte, 0, len(numberPrefix)+14+suffixLen)
	buf = append(buf, numberPrefix...)
	buf = now.AppendFormat(buf, "20060102150405")
	for range suffixLen {
		buf = append(buf, numberCharset[rand.IntN(len(numberCharset))])
	}
	return string(buf)
}
