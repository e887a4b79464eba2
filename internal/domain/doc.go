// Package domain defines core data models and interfaces shared across the
// engine. It contains plain types (wire/state) and contracts (interfaces) only.
package domain
