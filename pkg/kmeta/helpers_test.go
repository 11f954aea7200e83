package kmeta

import (
	"time"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// fakeClock stands in for cfg.now so TTL arithmetic is deterministic.
type fakeClock struct {
	ms int64
}

func (f *fakeClock) now() time.Time          { return time.UnixMilli(f.ms) }
func (f *fakeClock) advance(d time.Duration) { f.ms += d.Milliseconds() }

func newTestCluster(opts ...Opt) (*Cluster, *fakeClock) {
	cl := NewCluster(opts...)
	clock := new(fakeClock)
	cl.cfg.now = clock.now
	return cl, clock
}

func respBroker(node int32, host string, port int32) kmsg.MetadataResponseBroker {
	b := kmsg.NewMetadataResponseBroker()
	b.NodeID = node
	b.Host = host
	b.Port = port
	return b
}

func respTopic(topic string, errCode int16, leaders map[int32]int32) kmsg.MetadataResponseTopic {
	t := kmsg.NewMetadataResponseTopic()
	t.Topic = kmsg.StringPtr(topic)
	t.ErrorCode = errCode
	for partition, leader := range leaders {
		p := kmsg.NewMetadataResponseTopicPartition()
		p.Partition = partition
		p.Leader = leader
		t.Partitions = append(t.Partitions, p)
	}
	return t
}

func resp(brokers []kmsg.MetadataResponseBroker, topics ...kmsg.MetadataResponseTopic) *kmsg.MetadataResponse {
	r := kmsg.NewPtrMetadataResponse()
	r.Brokers = brokers
	r.Topics = topics
	return r
}

func twoBrokers() []kmsg.MetadataResponseBroker {
	return []kmsg.MetadataResponseBroker{
		respBroker(1, "h1", 9092),
		respBroker(2, "h2", 9092),
	}
}
