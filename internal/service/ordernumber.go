package service

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

const orderNumberSuffix = 1_000_000_000_000

// NewOrderNumber formats a support-friendly reference: the UTC calendar day
// followed by twelve random digits, e.g. 20261016-083412775190.
func NewOrderNumber(now time.Time) string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	n := binary.BigEndian.Uint64(buf[:]) % orderNumberSuffix
	return fmt.Sprintf("%s-%012d", now.UTC().Format("20060102"), n)
}
