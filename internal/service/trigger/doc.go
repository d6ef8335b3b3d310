// Package trigger is the daemon entry point: it runs the rtl_433 decoder,
// feeds filtered events to the action supervisor, and optionally serves
// trigger notifications to connected peers.
package trigger
