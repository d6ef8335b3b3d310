// Package config defines the YAML settings shared by the rtl-trigger
// binaries: decoder command and device, action command and busy policy,
// event filter constraints, and notification server address.
//
// Load reads a settings file and fills in defaults; Validate is called by
// the daemon after command-line overrides have been merged in.
package config
