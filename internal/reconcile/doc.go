// Package reconcile turns match outcomes into library changes.
//
// Plan maps each outcome to an update, a placeholder insert or a no-op and,
// optionally, sweeps unlinked records to their ebook-only status. Apply is
// the single consumer of those actions for both automatic sync and manual
// resolution; it stops at the first store failure and never rolls back.
package reconcile
