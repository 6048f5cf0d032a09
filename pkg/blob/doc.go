/*
Package blob defines Strata's storage abstraction: a flat path->value
key space with read, write, exists, list and optional delete, and three
concrete adapters (MemoryAdapter, FSAdapter, BoltAdapter) implementing it.

pkg/store depends only on the Adapter interface; which adapter backs a
given collection is a deployment choice (see pkg/config), not something
the store or the CRDT/sync layers above it are aware of.

list returns only the first-level children of a directory, sorted
lexicographically, matching every adapter's layout: MemoryAdapter and
FSAdapter use the literal path hierarchy ("/"-separated segments);
BoltAdapter maps the first path segment to a bbolt bucket and treats the
remainder as the key within it.
*/
package blob
