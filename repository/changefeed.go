package repository

import "context"

// Subscription is a live registration on a change feed.
type Subscription interface {
	Close() error
}

// ChangeFeed broadcasts "something changed" signals for a user's task collection.
// Notifications carry no payload; consumers refetch.
type ChangeFeed interface {
	Publish(ctx context.Context, ownerID string) error
	Subscribe(ctx context.Context, ownerID string, fn func()) (Subscription, error)
}
