/*
Package hlc implements a Hybrid Logical Clock: a timestamp that combines
wall-clock time with a logical counter and a random tie-break nonce, giving
a strict total order across a single process's calls to Tick and across
remote timestamps observed via Observe.

# Canonical form

A Timestamp's canonical string form is "<physical>-<logical>-<nonce>",
where physical is milliseconds since the Unix epoch (decimal, no leading
zeros), logical is a non-negative counter zero-padded to 6 digits, and
nonce is 6 random base36 characters. Lexicographic comparison of the
canonical string agrees with Timestamp.Compare for any two timestamps
produced within the same multi-century window, since the physical
component's decimal digit count never needs padding in practice.

# Ordering

Timestamps compare by physical, then logical, then nonce. Two distinct
Tick calls on the same Clock always compare unequal because each draws a
fresh nonce. When physical, logical, and nonce are all identical (only
possible if a nonce collides, astronomically unlikely), Compare returns 0;
callers such as crdt.MergeField then keep their first argument, and must
not rely on that tie-break resolving in any particular direction.

# Clock state

A Clock is injected, not a package-level singleton: each collection or
process that needs causal ordering constructs its own Clock (see
pkg/store), which keeps tests deterministic and lets multiple tenants run
in one process without sharing clock state.
*/
package hlc
