// Package common holds helpers shared by the rtl-trigger services:
// rendering of child-process exit conditions and the pid-marker guard that
// keeps two daemons from fighting over one SDR device.
package common
