/*
Package state implements the snapshot diff store used by change-detecting
commands.

A Manager wraps a ports.SnapshotStore and answers one question per call:
"is this value different from the last one recorded under this key?". The
first observation of a key always counts as a change. Every call records the
new value, whether or not it changed.

Updates to one key are serialized within a process, and across processes when
a ports.DistributedLocker is configured.
*/
package state
