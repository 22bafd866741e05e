// Package daemon wires the queue store, delivery worker, summary scheduler,
// and optional metrics listener into a single-instance background service.
package daemon
