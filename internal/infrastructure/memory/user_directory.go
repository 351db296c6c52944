package memory

import (
	"context"
	"sync"
)

// UserDirectory maps user ids to email addresses. Unknown users resolve to an
// empty address, which the notification worker skips.
type UserDirectory struct {
	mu     sync.RWMutex
	emails map[string]string
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{emails: make(map[string]string)}
}

func (d *UserDirectory) Put(userID, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails[userID] = email
}

func (d *UserDirectory) EmailOf(ctx context.Context, userID string) (string, error) {
	_ = ctx

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.emails[userID], nil
}
