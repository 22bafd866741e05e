// Package alert defines the alert taxonomy shared by the queue and its
// producers: the known alert kinds, priority tiers, per-kind delivery
// configuration, and the deduplication fingerprint rules.
//
// Everything in this package is pure and static. The configuration table is
// built once at init and never mutated; fingerprinting and priority
// classification are plain functions with no I/O. The queue store is the only
// component that consults a clock or a database.
//
// Treat this package as the single source of truth for suppression
// granularity: the per-kind context rules in fingerprint.go encode how often
// "the same" alert may fire, and changing them changes user-visible noise.
package alert
