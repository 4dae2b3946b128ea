// Package services drives reconciliation passes: the per-workspace
// orchestrator, the concurrent workspace runner, the cron scheduler and the
// dynamic relation resolvers.
package services
