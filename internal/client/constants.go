// Package client drives adoption requests from the user's side: it keeps at
// most one request in flight per animal, animates the adopt button and owns
// the bounded notification feed.
package client

import "time"

const (
	// CooldownWindow is how long an item stays guarded after its request settles.
	CooldownWindow = 3 * time.Second

	// RejectDisplayWindow is how long a rejected button shows before reverting.
	RejectDisplayWindow = 3 * time.Second

	// LocalNotificationTTL is when a local notification starts leaving the feed.
	LocalNotificationTTL = 6 * time.Second

	// ExitAnimationWindow is the exit phase after LocalNotificationTTL.
	ExitAnimationWindow = 500 * time.Millisecond

	// FeedCapacity is the most entries the feed shows.
	FeedCapacity = 8
)
