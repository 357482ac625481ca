// Package mesh coordinates a set of named agents connected in an undirected
// graph. Messages routed between connected agents land in per-agent,
// per-session FIFO queues, and one background consumer per (agent, session)
// drains each queue by calling out to a text-generation service and recording
// the exchange in the session log.
//
// The System registry is safe for concurrent use; it is guarded by a single
// coarse lock, while each Agent separately guards its own connection set and
// session map. No lock is ever held across a model call.
package mesh
