package common

const (
	RedisStreamCatalogSync = "market.catalog.sync"

	RedisStreamGroup    = "engine-group"
	RedisStreamConsumer = "engine-consumer"
)
