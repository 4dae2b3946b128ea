// Package ports defines the interfaces (ports) that external adapters must implement.
// The reconciliation engine depends only on these: the metadata store, the
// physical schema executor, feature flags and workspace locking are adapters.
package ports
