/*
Package ports defines the interfaces between the strata core and the
outside world.

State is the inbound capability application states implement. The rest are
driven ports decoupling the engine and session layer from concrete
backends.

# Key Interfaces

  - State: handle an event, run entry/exit actions, report an id.
  - SnapshotStore: persist and load instance snapshots.
  - DistributedLocker: cross-replica instance locking.
  - ChartLoader: fetch declarative chart definitions.
*/
package ports
