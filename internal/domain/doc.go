// Package domain defines the core domain types and interfaces of the review analytics engine.
//
// This package contains concept-oriented files (review.go, analytics.go, errors.go)
// with shared value types and the contracts adapters implement. No I/O here.
// Interfaces live on the consumer side to prevent circular imports.
package domain
