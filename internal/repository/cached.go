package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/pkg/cache"
)

const eventCacheTTL = 5 * time.Minute

// SettingsDirectory is a directory that can also read event settings alone.
type SettingsDirectory interface {
	bulkorder.Directory
	Settings(ctx context.Context, eventID int64) (bulkorder.EventSettings, error)
}

// CachedDirectory memoizes the organizer/event ownership check and the
// event's static fields. Settings are read fresh on every Scope, so a change
// reaches the next job. Actors are always read fresh so deactivated users
// stop acting immediately.
type CachedDirectory struct {
	next   SettingsDirectory
	events cache.Cache[bulkorder.Event]
	ttl    time.Duration
}

var _ bulkorder.Directory = (*CachedDirectory)(nil)

func NewCachedDirectory(next SettingsDirectory, c cache.Cache[bulkorder.Event], ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = eventCacheTTL
	}
	return &CachedDirectory{next: next, events: c, ttl: ttl}
}

func (d *CachedDirectory) Scope(ctx context.Context, organizerID, eventID int64) (*bulkorder.Event, error) {
	key := fmt.Sprintf("event:%d:%d", organizerID, eventID)
	ev, err := cache.GetOrSet(ctx, d.events, key, d.ttl, func(ctx context.Context) (bulkorder.Event, error) {
		ev, err := d.next.Scope(ctx, organizerID, eventID)
		if err != nil {
			return bulkorder.Event{}, err
		}
		return *ev, nil
	})
	if err != nil {
		return nil, err
	}
	settings, err := d.next.Settings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ev.Settings = settings
	return &ev, nil
}

func (d *CachedDirectory) Actor(ctx context.Context, userID int64) (bulkorder.Actor, error) {
	return d.next.Actor(ctx, userID)
}
