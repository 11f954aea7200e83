package kmeta

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// BrokerMetadata is the identity of one broker node. Values are replaced
// wholesale on each metadata update, last write winning per node ID.
type BrokerMetadata struct {
	NodeID int32
	Host   string
	Port   int32
}

// Cluster is a cache of cluster metadata. A zero Cluster is not usable; use
// NewCluster.
type Cluster struct {
	cfg cfg

	mu sync.Mutex

	brokers    map[int32]BrokerMetadata
	partitions map[string]map[int32]int32 // topic => partition => leader
	groups     map[string]int32           // group => coordinator

	version                 int64
	lastRefreshMs           int64
	lastSuccessfulRefreshMs int64

	needUpdate bool
	future     *UpdateFuture

	listeners map[*Listener]struct{}
}

// NewCluster returns an empty cache ready to be driven by metadata refreshes.
func NewCluster(opts ...Opt) *Cluster {
	cfg := defaultCfg()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Cluster{
		cfg: cfg,

		brokers:    make(map[int32]BrokerMetadata),
		partitions: make(map[string]map[int32]int32),
		groups:     make(map[string]int32),
		listeners:  make(map[*Listener]struct{}),
	}
}

func (c *Cluster) nowMs() int64 { return c.cfg.now().UnixMilli() }

// Brokers returns all currently known brokers, sorted by node ID.
func (c *Cluster) Brokers() []BrokerMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	bs := make([]BrokerMetadata, 0, len(c.brokers))
	for _, b := range c.brokers {
		bs = append(bs, b)
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i].NodeID < bs[j].NodeID })
	return bs
}

// Broker returns the metadata for one node, if known.
func (c *Cluster) Broker(nodeID int32) (BrokerMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.brokers[nodeID]
	return b, ok
}

// PartitionsForTopic returns the sorted partition indices known for a topic.
// The second return is false if the topic is entirely unknown, which is
// distinct from a topic known to have zero partitions (the latter is never
// actually stored: a topic that loads without error always carries its
// partition entries).
func (c *Cluster) PartitionsForTopic(topic string) ([]int32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	parts, ok := c.partitions[topic]
	if !ok {
		return nil, false
	}
	ps := make([]int32, 0, len(parts))
	for p := range parts {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps, true
}

// LeaderForPartition returns the node ID leading a topic's partition, if the
// topic and partition are known.
func (c *Cluster) LeaderForPartition(topic string, partition int32) (int32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	parts, ok := c.partitions[topic]
	if !ok {
		return 0, false
	}
	leader, ok := parts[partition]
	return leader, ok
}

// CoordinatorForGroup returns the node ID coordinating a consumer group, if
// known.
func (c *Cluster) CoordinatorForGroup(group string) (int32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coordinator, ok := c.groups[group]
	return coordinator, ok
}

// SetGroupCoordinator records the coordinator for a group, as discovered by a
// FindCoordinator exchange. Metadata updates do not touch this mapping.
func (c *Cluster) SetGroupCoordinator(group string, nodeID int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[group] = nodeID
}

// Topics returns all topics present in the partition cache, sorted.
func (c *Cluster) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := make([]string, 0, len(c.partitions))
	for t := range c.partitions {
		ts = append(ts, t)
	}
	sort.Strings(ts)
	return ts
}

// Version returns the count of successful metadata updates applied so far.
// Observers can poll this to detect change without diffing.
func (c *Cluster) Version() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Cluster) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("Cluster(brokers: %d, topics: %d, groups: %d)",
		len(c.brokers), len(c.partitions), len(c.groups))
}

// TTL returns how long until metadata should be refreshed. Two pressures
// force a refresh: the cache aging past the configured metadata max age, or
// an explicit RequestUpdate once the retry backoff from the last attempt has
// elapsed. The backoff applies to failed and successful attempts alike, which
// prevents refresh storms right after an attempt. The result is never
// negative; zero means refresh now.
func (c *Cluster) TTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowMs()
	var age int64
	if !c.needUpdate {
		age = c.lastSuccessfulRefreshMs + c.cfg.metadataMaxAge.Milliseconds() - now
	}
	retry := c.lastRefreshMs + c.cfg.retryBackoff.Milliseconds() - now

	ttl := age
	if retry > ttl {
		ttl = retry
	}
	if ttl < 0 {
		ttl = 0
	}
	return time.Duration(ttl) * time.Millisecond
}

// RequestUpdate flags metadata for refresh and returns the future that the
// next refresh attempt will resolve. Everybody who requests an update before
// that attempt resolves shares the same future. This only changes what TTL
// reports; the actual refresh is the driver's job.
func (c *Cluster) RequestUpdate() *UpdateFuture {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.needUpdate = true
	if c.future == nil || c.future.IsDone() {
		c.future = newUpdateFuture()
	}
	return c.future
}

// FailedUpdate records a failed refresh attempt: the outstanding future, if
// any, fails with err, and the last-refresh timestamp advances so that TTL
// applies the retry backoff. The need-update flag stays set; a failed attempt
// must be retried.
func (c *Cluster) FailedUpdate(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedUpdate(err)
}

func (c *Cluster) failedUpdate(err error) {
	c.cfg.logger.Log(LogLevelWarn, "metadata refresh failed", "err", err)
	if c.future != nil {
		c.future.fail(err)
		c.future = nil
	}
	c.lastRefreshMs = c.nowMs()
}

// Update merges a metadata response into the cache.
//
// If the response holds exactly one topic and that topic errored, the whole
// refresh is treated as failed: nothing merges, the outstanding future fails
// with a *TopicError naming that topic, and the same error is returned. A
// request for a single topic that errors is unambiguous and should fail the
// caller rather than silently produce an empty cluster view.
//
// Otherwise brokers are upserted by node ID and the partition map is rebuilt
// from scratch, so topics absent from the response are dropped. Per-topic
// errors never abort the merge: an erroring topic is merely left out of the
// rebuilt map (LeaderNotAvailable means the topic is still initializing and
// will appear on a later refresh). On this path the version increments, both
// refresh timestamps advance, the outstanding future resolves with the
// cluster, every listener is invoked with the cluster, and nil is returned.
func (c *Cluster) Update(resp *kmsg.MetadataResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(resp.Topics) == 1 && resp.Topics[0].ErrorCode != 0 {
		err := &TopicError{
			Topic: topicName(&resp.Topics[0]),
			Err:   kerr.ErrorForCode(resp.Topics[0].ErrorCode),
		}
		c.failedUpdate(err)
		return err
	}

	if len(resp.Brokers) == 0 {
		c.cfg.logger.Log(LogLevelWarn, "no broker metadata in metadata response")
	}
	for _, b := range resp.Brokers {
		c.brokers[b.NodeID] = BrokerMetadata{
			NodeID: b.NodeID,
			Host:   b.Host,
			Port:   b.Port,
		}
	}

	c.partitions = make(map[string]map[int32]int32, len(resp.Topics))
	for i := range resp.Topics {
		t := &resp.Topics[i]
		if t.Topic == nil {
			continue // id-only topic (metadata v10+); we key by name
		}
		topic := *t.Topic
		switch err := kerr.ErrorForCode(t.ErrorCode); err {
		case nil:
			parts := make(map[int32]int32, len(t.Partitions))
			for j := range t.Partitions {
				parts[t.Partitions[j].Partition] = t.Partitions[j].Leader
			}
			c.partitions[topic] = parts
		case kerr.LeaderNotAvailable:
			c.cfg.logger.Log(LogLevelError, "topic is not available during auto-create initialization", "topic", topic)
		case kerr.UnknownTopicOrPartition:
			c.cfg.logger.Log(LogLevelError, "topic not found in cluster metadata", "topic", topic)
		case kerr.TopicAuthorizationFailed:
			c.cfg.logger.Log(LogLevelError, "topic is not authorized for this client", "topic", topic)
		case kerr.InvalidTopicException:
			c.cfg.logger.Log(LogLevelError, "topic name is not valid", "topic", topic)
		default:
			c.cfg.logger.Log(LogLevelError, "error loading metadata for topic", "topic", topic, "err", err)
		}
	}

	if c.future != nil {
		c.future.fulfill(c)
		c.future = nil
	}
	c.needUpdate = false
	c.version++
	now := c.nowMs()
	c.lastRefreshMs = now
	c.lastSuccessfulRefreshMs = now
	c.cfg.logger.Log(LogLevelDebug, "updated cluster metadata",
		"version", c.version, "brokers", len(c.brokers), "topics", len(c.partitions))

	// Listeners run under the lock, after all mutation; they must not call
	// back into the cluster's mutating methods.
	for l := range c.listeners {
		l.fn(c)
	}
	return nil
}

func topicName(t *kmsg.MetadataResponseTopic) string {
	if t.Topic == nil {
		return ""
	}
	return *t.Topic
}
