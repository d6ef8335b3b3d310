// Package notify implements the companion client for the notification
// protocol: it sends a trigger to a running daemon and can watch the
// connection for triggers raised by others.
package notify
