package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Cache. TTLs are ignored; it exists for tests and
// single-terminal setups without Redis.
type Memory struct {
	ServiceName string

	mu sync.Mutex
	m  map[string]string
}

func NewMemory(serviceName string) *Memory {
	return &Memory{ServiceName: serviceName, m: map[string]string{}}
}

func (c *Memory) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch v := value.(type) {
	case string:
		c.m[key] = v
	case []byte:
		c.m[key] = string(v)
	default:
		c.m[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *Memory) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key], nil
}

func (c *Memory) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func (c *Memory) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.ServiceName, operation, key)
}

// Len reports how many keys are stored.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
