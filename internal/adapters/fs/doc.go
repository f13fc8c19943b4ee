// Package fs implements ports.Journal on a plain append-only file.
package fs
