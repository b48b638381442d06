// Package kv реализует репозитории сущностей поверх repository.Store.
//
// Каждая коллекция хранится одним JSON документом под фиксированным ключом.
// Поврежденный документ заменяется пустым значением с предупреждением в логе.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"

	"github.com/aidar/taskflow/internal/repository"
)

// Ключи хранилища
const (
	KeyUsers           = "taskflow:users"
	KeyTeams           = "taskflow:teams"
	KeyInvitations     = "taskflow:invitations"
	PrefixData         = "taskflow:data:"
	PrefixSubscription = "taskflow:subscription:"
	PrefixCredentials  = "taskflow:credentials:"
)

// readJSON декодирует data в dst. false если данных нет или они повреждены.
func readJSON(logger *slog.Logger, key string, data []byte, dst any) bool {
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("Corrupted value replaced with default", "key", key, "error", err)
		return false
	}
	return true
}

// collection хранит map id -> *V под одним ключом
type collection[V any] struct {
	store  repository.Store
	logger *slog.Logger
	key    string
}

func (c *collection[V]) decode(data []byte) map[string]*V {
	m := map[string]*V{}
	if !readJSON(c.logger, c.key, data, &m) || m == nil {
		return map[string]*V{}
	}
	for k, v := range m {
		if v == nil {
			delete(m, k)
		}
	}
	return m
}

func (c *collection[V]) all(ctx context.Context) (map[string]*V, error) {
	data, err := c.store.Get(ctx, c.key)
	if err != nil && !errors.Is(err, repository.ErrKeyNotFound) {
		return nil, err
	}
	return c.decode(data), nil
}

func (c *collection[V]) get(ctx context.Context, id string) (*V, bool, error) {
	m, err := c.all(ctx)
	if err != nil {
		return nil, false, err
	}
	v, ok := m[id]
	return v, ok, nil
}

// update применяет fn к коллекции под блокировкой ключа; ошибка fn отменяет запись
func (c *collection[V]) update(ctx context.Context, fn func(m map[string]*V) error) error {
	return c.store.Update(ctx, c.key, func(current []byte) ([]byte, error) {
		m := c.decode(current)
		if err := fn(m); err != nil {
			return nil, err
		}
		return json.Marshal(m)
	})
}

// sortedValues возвращает значения по возрастанию ключа
func sortedValues[V any](m map[string]*V) []*V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// document хранит одно значение под ключом prefix+id
type document[V any] struct {
	store  repository.Store
	logger *slog.Logger
	prefix string
}

// load возвращает значение и false если его нет или оно повреждено
func (d *document[V]) load(ctx context.Context, id string) (*V, bool, error) {
	key := d.prefix + id
	data, err := d.store.Get(ctx, key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	v := new(V)
	if !readJSON(d.logger, key, data, v) {
		return nil, false, nil
	}
	return v, true, nil
}

func (d *document[V]) save(ctx context.Context, id string, v *V) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.store.Put(ctx, d.prefix+id, data)
}

func (d *document[V]) ids(ctx context.Context) ([]string, error) {
	keys, err := d.store.Keys(ctx, d.prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(d.prefix):])
	}
	return ids, nil
}
