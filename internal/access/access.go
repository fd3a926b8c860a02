// Package access tracks which users may upload listings.
package access

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"animedb/internal/services"
)

// ErrUnauthorized reports that a user is not on the uploader list.
var ErrUnauthorized = fmt.Errorf("%w: not an authorized uploader", services.ErrForbidden)

// List is an in-memory uploader allow-list. Any listed user may add others.
type List struct {
	mu  sync.RWMutex
	ids []string
}

// NewList seeds the allow-list. Blank and repeated IDs are ignored.
func NewList(ids ...string) *List {
	l := &List{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(l.ids, id) {
			l.ids = append(l.ids, id)
		}
	}
	return l
}

// Allowed reports whether id may upload.
func (l *List) Allowed(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.ids, strings.TrimSpace(id))
}

// Check returns ErrUnauthorized when id may not upload.
func (l *List) Check(id string) error {
	if id == "" || !l.Allowed(id) {
		return fmt.Errorf("%w: user %q", ErrUnauthorized, id)
	}
	return nil
}

// Authorize adds id on behalf of admin, who must already be listed. It
// reports false when id was already present.
func (l *List) Authorize(admin, id string) (bool, error) {
	if err := l.Check(admin); err != nil {
		return false, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, services.Wrap(services.ErrValidation, "access", "authorize", "empty user id", nil)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if slices.Contains(l.ids, id) {
		return false, nil
	}
	l.ids = append(l.ids, id)
	return true, nil
}

// IDs returns the listed users in the order they were added.
func (l *List) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.ids)
}
