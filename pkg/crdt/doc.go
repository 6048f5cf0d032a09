/*
Package crdt implements Strata's field-level last-writer-wins CRDT document
model: a Document is a map from field name to Field, where each Field
carries the HLC timestamp of the write that produced it. Whole field values
are replaced atomically by whichever write holds the greater HLC; fields
are not themselves recursively CRDT-ized.

# Operations

Wrap takes a plain document (map[string]any) and annotates every field with
a fresh clock tick, producing a new Document. Unwrap strips the CRDT
envelope back down to a plain document. Update replaces only the fields
named in a partial document, leaving the rest untouched, and always
recomputes the document's content hash. MergeField and MergeDocument
implement the LWW conflict resolution of spec.md §4.3: the field (or
document) merge never loses a field present in either input, and every
remote HLC observed during a merge is folded into the local clock so that
subsequent local ticks remain causally ordered after anything just merged
in.

# Wire shape

Document's JSON encoding matches spec.md §6.3 exactly: a "hash" string, a
"fields" object of {"value": ..., "hlc": "..."} entries, and any unknown
top-level keys preserved verbatim across a decode/encode round trip (forward
compatibility with future top-level additions this package does not know
about).
*/
package crdt
