// Package storage provides the persistence layer for guild subscriptions.
//
// One row per guild: where to deliver (channel/thread), which event kinds are
// subscribed (fixed-width bit string), and the delivery webhook. All writes
// are upserts; durability comes from the backend, not from in-process locks.
package storage
