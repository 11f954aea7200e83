// Package kmeta provides a client-local cache of Kafka cluster metadata: the
// brokers that exist, the leader of every known topic partition, and the
// coordinator of every known consumer group.
//
// The cache itself performs no I/O. It is a state machine meant to be driven
// by whatever issues actual metadata requests: the driver polls TTL to learn
// when a refresh is due, performs the request, and feeds the raw
// kmsg.MetadataResponse back through Update, or the failure through
// FailedUpdate. Anything that needs fresh metadata calls RequestUpdate and
// waits on the returned UpdateFuture; all callers that request an update
// before the next refresh resolves share one future and are notified once.
//
// For the common case of a background goroutine polling TTL, Refresher wires
// a fetch function to a Cluster.
//
// All methods on Cluster are safe for concurrent use; the whole structure is
// guarded by a single mutex.
package kmeta
