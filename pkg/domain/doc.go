/*
Package domain contains the core value types of the strata engine.

It defines identifiers, the event envelope, deferred transition requests,
dispatch outcomes, lifecycle hook payloads, persistable snapshots, and the
declarative chart model. The package is kept pure: no I/O, no persistence,
no engine mechanics.

# Key Entities

  - StateID / EventID: opaque ordered identifiers applications enumerate.
  - Event: an event id plus an opaque byte payload.
  - Request: a deferred ChangeState or FireEvent produced by a Delegate.
  - Outcome: Handled or Unhandled, the result of one dispatch.
  - Snapshot: the persistable position of a running instance.
  - ChartDef: a declarative hierarchy plus per-state event tables.
*/
package domain
