// Package util holds small generic helpers shared across audiopen
// packages: pointer helpers for partial updates, first-non-zero selection
// and secret masking for display.
package util
