// Package filesystem provides the effectful filesystem abstraction used
// by all mutating code paths.
//
// Three implementations exist:
//   - NewOS: the real filesystem
//   - NewAferoFS: an afero-backed filesystem for tests
//   - NewDryRun: a decorator that logs intended mutations and performs
//     none of them
//
// Routing every mutation through FS keeps the dry-run behavior in one
// place instead of branching inside each operation.
package filesystem
