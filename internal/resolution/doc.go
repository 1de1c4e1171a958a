// Package resolution applies human decisions for audiobooks the matcher could
// not place on its own.
//
// An Entry names an ASIN and exactly one target: a library id, a library
// title to look up, or a request to create an Audible-only placeholder. The
// Applier validates each entry, turns it into the same update or insert the
// sync planner would produce, and sends it through reconcile.Apply. Entries
// are independent; a rejected entry never stops a batch.
package resolution
