package kmeta

import "time"

// Opt is an option to configure a Cluster.
type Opt interface {
	apply(*cfg)
}

type opt struct{ fn func(*cfg) }

func (o opt) apply(cfg *cfg) { o.fn(cfg) }

type cfg struct {
	retryBackoff   time.Duration
	metadataMaxAge time.Duration

	logger *wrappedLogger

	now func() time.Time // swapped in tests
}

func defaultCfg() cfg {
	return cfg{
		retryBackoff:   100 * time.Millisecond,
		metadataMaxAge: 5 * time.Minute,

		logger: &wrappedLogger{},

		now: time.Now,
	}
}

// RetryBackoff sets the minimum time between metadata refresh attempts,
// overriding the default 100ms. A refresh never begins before this much time
// has passed since the last attempt, successful or not.
//
// This corresponds to Kafka's retry.backoff.ms setting.
func RetryBackoff(backoff time.Duration) Opt {
	return opt{func(cfg *cfg) { cfg.retryBackoff = backoff }}
}

// MetadataMaxAge sets the maximum age of cached metadata before TTL demands a
// refresh, overriding the default 5m, to allow detection of new topics,
// partitions, and migrated leaders.
//
// This corresponds to Kafka's metadata.max.age.ms setting.
func MetadataMaxAge(age time.Duration) Opt {
	return opt{func(cfg *cfg) { cfg.metadataMaxAge = age }}
}

// WithLogger sets the logger to use, overriding the default of no logging.
func WithLogger(l Logger) Opt {
	return opt{func(cfg *cfg) { cfg.logger = &wrappedLogger{l} }}
}
