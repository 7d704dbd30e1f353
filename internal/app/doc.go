// Package app provides the application service layer.
//
// Analytics is the single entry point consumers use: it combines the risk signal and the
// volume trend of one organization, computed at the same instant, and owns caching,
// request collapsing and invalidation. Depends on domain interfaces, not concrete implementations.
package app
