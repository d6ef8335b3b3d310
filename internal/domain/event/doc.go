// Package event defines the domain model for decoder reports: the Event
// value decoded from one JSON line of rtl_433 output, and the Filter
// predicate selecting which events trigger actions.
package event
