package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a random connection identifier.
func NewID() string {
	return uuid.NewString()
}

// RandomColor returns a random "#rrggbb" colour.
func RandomColor() string {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "#000000"
	}
	return fmt.Sprintf("#%02x%02x%02x", buf[0], buf[1], buf[2])
}
