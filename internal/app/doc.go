// Package app builds the dependency graph for the fuselink binaries.
package app
