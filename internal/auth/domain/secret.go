package domain

import "time"

// Secret is an HMAC signing secret. Bytes are sealed before they reach
// storage and opened on the way back.
type Secret struct {
	ID        int64
	Bytes     []byte
	CreatedAt time.Time
}
