// Package post manages scheduled posts: the individual obligations to
// publish a piece of content at a specific time. Posts may belong to a
// campaign or stand alone. The service owns editor-facing CRUD and
// cancellation; the orchestrator owns publishing.
package post
