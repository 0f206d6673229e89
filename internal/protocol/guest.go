package protocol

import (
	"fmt"
	"time"
)

// NewGuestID mints a guest ID in the platform's "v1%3A<millis>" format,
// used to key the XPFF encryption alongside the fixed base key.
func NewGuestID() string {
	return fmt.Sprintf("v1%%3A%d", time.Now().UnixMilli())
}
