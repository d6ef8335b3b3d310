// Package decoder runs the external rtl_433 process and turns its
// newline-delimited JSON output into filtered domain events. Decode
// failures are fatal for the pipeline: they signal a broken decoder,
// not a bad event.
package decoder
