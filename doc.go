// Package newssync is the offline-first data core for a news reader:
// a local sqlite store of articles, a stale-while-revalidate cache in front
// of the backend feed, a bidirectional sync manager and a relevance-ranked
// local search engine.
//
// The Service type wires the pieces together for embedding applications;
// the sub-packages (store, cache, syncer, search, remote, connectivity,
// auth) remain usable on their own.
package newssync
