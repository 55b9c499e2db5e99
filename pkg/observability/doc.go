/*
Package observability turns pipeline lifecycle events into Prometheus metrics
and debug logs.

Both are exposed as domain.LifecycleHooks, so they can be combined with
domain.MergeHooks and handed to the runtime.
*/
package observability
