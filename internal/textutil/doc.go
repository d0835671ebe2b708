// Package textutil sanitizes metadata values for safe use as file system path
// segments.
package textutil
