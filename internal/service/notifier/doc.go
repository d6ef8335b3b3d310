// Package notifier implements the plain-text notification service: a TCP
// listener fanning a single trigger signal out to every connected peer and
// accepting triggers from them. The protocol is one newline-delimited token,
// "dingdong", in both directions; anything else inbound is ignored.
//
// Slow peers lose old triggers instead of stalling publishers: the fan-out
// hub retains at most ten outstanding messages per subscriber.
package notifier
