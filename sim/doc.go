// Package sim implements the core entity manager of a networked entity
// replication and client-side prediction engine. It provides a deterministic
// fixed-tick world of typed entities, authoritatively simulated on a server
// and predicted forward on owning clients with rollback-and-replay
// reconciliation.
//
// The package is role-agnostic: a single Manager type backs both
// ServerManager and ClientManager, differing only in the Mode passed at
// construction and the RoleHooks supplied by the caller. Wire transport, the
// delta encoder/decoder, input processing and concrete gameplay entities are
// collaborators outside this package.
package sim
