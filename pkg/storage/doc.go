// Package storage defines the persistence contracts for conversations,
// messages, and audit records, plus utilities shared across the adapter
// implementations (sentinel errors and tenant context helpers).
//
// Two adapters exist: memory (testing and lightweight deployments) and
// postgres (production). Both implement the Store interface defined here.
package storage
