/*
Package syncserver is the reference implementation of the sync wire
protocol's server side (spec §6.4): three routes per collection, backed by
a store.Engine. It is ambient, not core — the protocol is specified
abstractly in spec.md and this package exists so it can be exercised
end-to-end by syncclient and by `strata serve`.
*/
package syncserver
