package storage

import (
	"fmt"
	"github.com/Alcereo/inventory-gateway/pkg/crypt"
	"gopkg.in/yaml.v2"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
)

// fileStorage keeps values in a YAML document. With an encryptor every
// value is sealed before it reaches the disk.
type fileStorage struct {
	mu        sync.Mutex
	path      string
	encryptor *crypt.Encryptor
}

func NewFileStorage(path string, encryptor *crypt.Encryptor) *fileStorage {
	return &fileStorage{
		path:      path,
		encryptor: encryptor,
	}
}

func (storage *fileStorage) Get(key string) (string, bool, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	values, err := storage.read()
	if err != nil {
		return "", false, err
	}
	value, found := values[key]
	if !found {
		return "", false, nil
	}
	if storage.encryptor != nil {
		value, err = storage.encryptor.Decrypt(value)
		if err != nil {
			return "", false, fmt.Errorf("failed to decrypt %q: %w", key, err)
		}
	}
	return value, true, nil
}

func (storage *fileStorage) Set(key string, value string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	values, err := storage.read()
	if err != nil {
		return err
	}
	if storage.encryptor != nil {
		value, err = storage.encryptor.Encrypt(value)
		if err != nil {
			return fmt.Errorf("failed to encrypt %q: %w", key, err)
		}
	}
	values[key] = value
	return storage.write(values)
}

func (storage *fileStorage) Remove(keys ...string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	values, err := storage.read()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(values, key)
	}
	return storage.write(values)
}

func (storage *fileStorage) read() (map[string]string, error) {
	values := make(map[string]string)
	bytes, err := ioutil.ReadFile(storage.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", storage.path, err)
	}
	if err := yaml.Unmarshal(bytes, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", storage.path, err)
	}
	return values, nil
}

func (storage *fileStorage) write(values map[string]string) error {
	bytes, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}
	dir := filepath.Dir(storage.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %v: %w", dir, err)
	}
	tmp, err := ioutil.TempFile(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), storage.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %v: %w", storage.path, err)
	}
	return nil
}
