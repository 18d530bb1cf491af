// Package filestore stores spilled runs as files named run-<uuid>.lpq in one
// directory, using the runfile format.
package filestore
