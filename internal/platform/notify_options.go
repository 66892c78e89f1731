// Package platform delivers desktop notifications through the host's
// notification service.
package platform

import "time"

// AppName identifies markshot to the notification service.
const AppName = "markshot"

// Options configures how a notification is displayed.
type Options struct {
	// IconPath points at an image shown beside the notification, when the
	// platform supports it.
	IconPath string
	// Timeout is how long the notification stays up; zero uses DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
