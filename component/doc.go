// Package component defines the lifecycle interface shared by audiopen's
// infrastructure (storage backends, database, redis) and a registry that
// starts them in order, stops them in reverse and aggregates their health.
package component
