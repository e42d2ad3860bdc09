package mylock

import (
	"context"
	"sync"
	"time"

	"github.com/MarcGrol/checkoutbackend/lib/mytime"
)

type inMemoryLocker struct {
	sync.Mutex
	nower   mytime.Nower
	expires map[string]time.Time
}

func NewInMemoryLocker(nower mytime.Nower) *inMemoryLocker {
	return &inMemoryLocker{
		nower:   nower,
		expires: map[string]time.Time{},
	}
}

func (l *inMemoryLocker) Claim(c context.Context, key string, ttl time.Duration) (bool, error) {
	l.Lock()
	defer l.Unlock()

	now := l.nower.Now()
	expiresAt, exists := l.expires[key]
	if exists && now.Before(expiresAt) {
		return false, nil
	}
	l.expires[key] = now.Add(ttl)

	return true, nil
}
