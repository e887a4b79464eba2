// Package commands implements the fuselink CLI: key management, token
// exchange, pairing and encrypted messaging through a fusion node.
package commands
