// Package workpool provides a bounded goroutine pool whose tasks return
// futures, and a completion queue that hands back finished tasks in the
// order they complete.
package workpool
