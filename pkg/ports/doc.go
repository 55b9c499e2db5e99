/*
Package ports defines the contracts between the lobster engine and the code that
plugs into it.

These interfaces decouple the runtime from concrete commands, storage backends
and surfaces, so that commands authored independently can be chained and the
snapshot store can live on disk, in Redis, or in memory.

# Key Interfaces

  - Command: a pipeline stage implementation (stream in, stream out, optional halt).
  - CommandResolver: name lookup used by the runtime and by commands that compose pipelines.
  - SnapshotStore: durable key to JSON value mapping used for change detection.
  - DistributedLocker: optional per-key locking for snapshot updates.
  - PipelineRunner: the entry point used by the HTTP and MCP adapters.
*/
package ports
