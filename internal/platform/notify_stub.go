//go:build !linux && !darwin

package platform

// Notify is a no-op where no notification service is wired up.
func Notify(string, string, Options) error { return nil }
