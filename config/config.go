package config

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig      RedisStorageConfig
	HttpPort         int
	StorageType      StorageType
	ExecutorCapacity int
	// ArchiveTTLSeconds bounds how long terminal executions are retained
	// by the in-memory archive. Zero means keep forever.
	ArchiveTTLSeconds int
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}
