// Package oneshot provides keyed, expiring, read-once storage.
//
// A value Put under a key replaces whatever was there and lives until its TTL
// elapses or it is Taken, whichever comes first. Take removes the value in
// the same step that returns it, so two concurrent Takes of one key never both
// succeed.
//
// MemoryStore keeps values in process memory and purges expired entries on a
// ticker. RedisStore keeps them in Redis (SET ... EX and GETDEL) so several
// bridge instances can share one correlation space.
package oneshot
