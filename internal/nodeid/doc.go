// internal/nodeid/doc.go

/*
Package nodeid provides the path-based identity used for every node and
sub-graph of a blueprint.

A Path is an ordered sequence of name segments, e.g. `sub.sub.d`. The empty
path is the root of a blueprint. Paths are the only key used for node
records and edges, so merging one blueprint into another is a pure
transformation over paths: every path of the source gets the destination
prefix prepended (see Path.Join).

This package enforces the segment naming schema and centralizes all
formatting and parsing logic.
*/
package nodeid
