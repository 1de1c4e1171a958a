// Package workflow runs one reconciliation pass end to end.
//
// A Manager loads the Audible export, verifies the library's custom columns,
// lists the library, classifies every audiobook, plans and applies the
// resulting actions, writes the report directory, and records the run in the
// ledger. Feed and schema failures abort before any library mutation. A store
// failure during apply stops the remaining actions, but the report and ledger
// are still written so the partial run can be inspected.
//
// Mutating runs hold the advisory run lock in the state directory; dry runs do
// not.
package workflow
