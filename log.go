package kestrel

import "log/slog"

// logInsertConflict records a rejected insert at Debug level: pattern is
// the route's raw template text, reason the sentinel error surfaced to the
// caller.
func (r *Router[T]) logInsertConflict(pattern string, reason error) {
	r.cfg.logger.Debug("insert rejected", slog.String("pattern", pattern), slog.Any("reason", reason))
}

// logConstraintRegistered records a successful [Router.Constraint] call.
func (r *Router[T]) logConstraintRegistered(name string) {
	r.cfg.logger.Debug("constraint registered", slog.String("name", name))
}

// logLeafPruned records that deleting a chain freed the last reference to
// a dimension trie leaf, triggering a branch prune.
func (r *Router[T]) logLeafPruned(dim string, leaf uint64) {
	r.cfg.logger.Debug("leaf pruned", slog.String("dimension", dim), slog.Uint64("leaf", leaf))
}
