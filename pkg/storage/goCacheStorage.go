package storage

import (
	"github.com/patrickmn/go-cache"
	"time"
)

type goCacheStorage struct {
	values *cache.Cache
}

// NewGoCacheStorage keeps values in memory for the life of the process.
func NewGoCacheStorage() *goCacheStorage {
	return &goCacheStorage{
		values: cache.New(cache.NoExpiration, time.Hour),
	}
}

func (storage *goCacheStorage) Get(key string) (string, bool, error) {
	value, found := storage.values.Get(key)
	if !found {
		return "", false, nil
	}
	return value.(string), true, nil
}

func (storage *goCacheStorage) Set(key string, value string) error {
	storage.values.Set(key, value, cache.NoExpiration)
	return nil
}

func (storage *goCacheStorage) Remove(keys ...string) error {
	for _, key := range keys {
		storage.values.Delete(key)
	}
	return nil
}
