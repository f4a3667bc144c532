// Package catalog serves the public, pricing-free product catalog.
//
// SnapshotCache keeps one projected snapshot of the product sheet in memory
// and refreshes it on the first read after the TTL has elapsed. Queries
// (filters, sorting, pagination) run against the snapshot and never touch
// the backing sheet.
package catalog
