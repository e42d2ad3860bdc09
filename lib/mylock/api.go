package mylock

import (
	"context"
	"time"
)

//go:generate mockgen -source=api.go -package mylock -destination locker_mock.go Locker
type Locker interface {
	// Claim returns true for exactly one caller per key until ttl has expired
	Claim(c context.Context, key string, ttl time.Duration) (bool, error)
}
