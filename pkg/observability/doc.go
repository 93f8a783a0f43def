/*
Package observability turns engine lifecycle hooks into Prometheus
metrics.

A Metrics value binds to one chart and produces a domain.LifecycleHooks
set counting dispatches, state entries, and transitions. Chain it with
application hooks and register the collectors on any Registerer; charts
with different names coexist on the same registry through a const label.
*/
package observability
