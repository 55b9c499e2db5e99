/*
Package domain contains the core data model of the lobster pipeline engine.

It defines the values that flow between pipeline stages and the descriptors the
parser produces. This package is kept pure and free of I/O, persistence, and
process concerns; those live behind the interfaces in package ports.

# Key Entities

  - Stream: a lazily produced, single-use sequence of JSON-like items.
  - Stage: one parsed command invocation (name, arguments, raw text).
  - Args / Value: the tagged argument union handed to every command.
  - Result: the materialized output of a pipeline run, including the Halted flag.
  - ChangeSummary: a field-level diff between two observed snapshots.
*/
package domain
