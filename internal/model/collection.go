package model

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Item is a Repo joined with its Publication.
type Item struct {
	Repo        Repo
	Publication Publication
}

// Collection is the result of one reconciliation pass. It is never modified
// after it has been published.
type Collection struct {
	Items     []Item
	Seq       uint64
	FetchedAt time.Time
}

// Len returns the number of items.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Find returns the item with the given key.
func (c *Collection) Find(key string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	for _, it := range c.Items {
		if it.Repo.Key == key {
			return it, true
		}
	}
	return Item{}, false
}

// FindByName resolves either a full "owner/name" key or a bare repository
// name. A bare name matching more than one owner is ambiguous.
func (c *Collection) FindByName(ref string) (Item, error) {
	if it, ok := c.Find(ref); ok {
		return it, nil
	}
	if c == nil {
		return Item{}, fmt.Errorf("repository %q not found", ref)
	}
	var matches []Item
	for _, it := range c.Items {
		if it.Repo.Name == ref {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return Item{}, fmt.Errorf("repository %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return Item{}, fmt.Errorf("repository name %q is ambiguous, use owner/name", ref)
	}
}

// Counts returns how many items have Pages enabled, absent and unknown.
func (c *Collection) Counts() (enabled, absent, unknown int) {
	if c == nil {
		return 0, 0, 0
	}
	for _, it := range c.Items {
		switch it.Publication.State {
		case PublicationEnabled:
			enabled++
		case PublicationAbsent:
			absent++
		default:
			unknown++
		}
	}
	return enabled, absent, unknown
}

// Problems joins the lookup failures of every item whose Pages state could
// not be determined. Returns nil when there are none.
func (c *Collection) Problems() error {
	if c == nil {
		return nil
	}
	var result *multierror.Error
	for _, it := range c.Items {
		if it.Publication.State == PublicationUnknown && it.Publication.Err != nil {
			result = multierror.Append(result, fmt.Errorf("repository %s: %w", it.Repo.Key, it.Publication.Err))
		}
	}
	return result.ErrorOrNil()
}
