package bus

// Entity topics carry the normalized venue records, one topic per entity
// class, keyed by symbol so per-symbol ordering holds within a partition.
const (
	TopicTrades       = "hyperliquid.trades"
	TopicQuotes       = "hyperliquid.quotes"
	TopicFunding      = "hyperliquid.funding"
	TopicOpenInterest = "hyperliquid.open-interest"
	TopicLiquidations = "hyperliquid.liquidations"
	TopicSymbols      = "hyperliquid.symbols"

	// TopicDeadLetter receives records whose publish or store write kept
	// failing after retries, for later inspection and replay.
	TopicDeadLetter = "dead-letter-queue"
)

// TopicConfig describes the broker-side intent for one topic: partition
// count, replication and retention/compaction settings.
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	Config            map[string]string
}

// Registry enumerates every topic the platform provisions. The ingestion
// pipeline only produces onto the entity topics and the dead-letter queue;
// the rest are declared here because this service owns the taxonomy.
var Registry = []TopicConfig{
	{
		Name:              TopicTrades,
		Partitions:        12,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "86400000",
			"segment.ms":       "600000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              TopicQuotes,
		Partitions:        12,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "3600000",
			"segment.ms":       "300000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              TopicFunding,
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "604800000",
			"segment.ms":       "1800000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              TopicOpenInterest,
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "86400000",
			"segment.ms":       "600000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              TopicLiquidations,
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "604800000",
			"segment.ms":       "1800000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              TopicSymbols,
		Partitions:        1,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "compact",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "market-price-updates",
		Partitions:        12,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "3600000",
			"segment.ms":       "300000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "market-trades",
		Partitions:        24,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "86400000",
			"segment.ms":       "600000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "market-ohlcv",
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":            "compact,delete",
			"retention.ms":              "2592000000",
			"segment.ms":                "3600000",
			"compression.type":          "zstd",
			"min.cleanable.dirty.ratio": "0.01",
		},
	},
	{
		Name:              "trader-position-updates",
		Partitions:        8,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "compact,delete",
			"retention.ms":     "604800000",
			"segment.ms":       "1800000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "trader-profit-loss",
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "compact,delete",
			"retention.ms":     "2592000000",
			"segment.ms":       "3600000",
			"compression.type": "zstd",
		},
	},
	{
		Name:              "trader-rankings",
		Partitions:        3,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":        "compact",
			"compression.type":      "zstd",
			"max.compaction.lag.ms": "3600000",
		},
	},
	{
		Name:              "copy-trade-events",
		Partitions:        8,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "2592000000",
			"segment.ms":       "1800000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "copy-performance",
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "compact,delete",
			"retention.ms":     "2592000000",
			"segment.ms":       "3600000",
			"compression.type": "zstd",
		},
	},
	{
		Name:              "copy-alignment",
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "604800000",
			"segment.ms":       "1800000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "user-events",
		Partitions:        4,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "2592000000",
			"segment.ms":       "3600000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "user-alerts",
		Partitions:        4,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "604800000",
			"segment.ms":       "1800000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "user-notifications",
		Partitions:        4,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "259200000",
			"segment.ms":       "900000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "system-metrics",
		Partitions:        3,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "86400000",
			"segment.ms":       "300000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "api-metrics",
		Partitions:        3,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "86400000",
			"segment.ms":       "300000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "error-events",
		Partitions:        3,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "259200000",
			"segment.ms":       "900000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "social-sentiment",
		Partitions:        6,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "86400000",
			"segment.ms":       "600000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "onchain-events",
		Partitions:        8,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "604800000",
			"segment.ms":       "1800000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              "analytics-events",
		Partitions:        4,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "86400000",
			"segment.ms":       "600000",
			"compression.type": "lz4",
		},
	},
	{
		Name:              TopicDeadLetter,
		Partitions:        3,
		ReplicationFactor: 3,
		Config: map[string]string{
			"cleanup.policy":   "delete",
			"retention.ms":     "2592000000",
			"segment.ms":       "3600000",
			"compression.type": "lz4",
		},
	},
}

// EntityTopics maps the entity classes this pipeline produces to their
// topics.
func EntityTopics() []string {
	return []string{
		TopicTrades,
		TopicQuotes,
		TopicFunding,
		TopicOpenInterest,
		TopicLiquidations,
		TopicSymbols,
	}
}

// ProvisionTopics lists the topics this service creates at startup: the
// entity topics it produces onto plus the dead-letter queue. The rest of the
// registry is provisioned by the platform's own deploy tooling.
func ProvisionTopics() []TopicConfig {
	names := append(EntityTopics(), TopicDeadLetter)
	out := make([]TopicConfig, 0, len(names))
	for _, name := range names {
		if tc, ok := LookupTopic(name); ok {
			out = append(out, tc)
		}
	}
	return out
}

// LookupTopic returns the registry entry for name.
func LookupTopic(name string) (TopicConfig, bool) {
	for _, tc := range Registry {
		if tc.Name == name {
			return tc, true
		}
	}
	return TopicConfig{}, false
}
