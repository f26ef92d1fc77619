/*
Package redisresults provides a graft.ResultStore backed by a redis
DB, so that workers from several processes collaborating on the same
extraction run can publish their iteration results to a shared
history.
*/
package redisresults

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/graftml/graft"
	redis "gopkg.in/redis.v5"
)

type redisStore struct {
	id  string
	rc  *redis.Client
	ttl time.Duration
}

/*
New returns a graft.ResultStore that uses the given redis client as a
backend. It uses the given id to prefix the keys used on the redis
client to keep the store's data, which are the following:
  - id:results is the key to a set with the iteration indices of
    every published result
  - id:result:iteration is the key to a string with the result for
    that iteration, serialized as JSON

Every key is set to expire in the given ttl duration, or never if ttl
is the zero value.

The returned store is secure for concurrent use by multiple
goroutines and processes.
*/
func New(id string, rc *redis.Client, ttl time.Duration) graft.ResultStore {
	return &redisStore{id: id, rc: rc, ttl: ttl}
}

func (rs *redisStore) Put(ctx context.Context, r graft.Result) error {
	data, err := json.Marshal(&r)
	if err != nil {
		return fmt.Errorf("storing result for iteration %d: %v", r.Iteration, err)
	}
	rKey := rs.resultKey(r.Iteration)
	err = rs.rc.Set(rKey, string(data), rs.ttl).Err()
	if err != nil {
		return fmt.Errorf("storing result for iteration %d: %v", r.Iteration, err)
	}
	err = rs.rc.SAdd(rs.indexSetKey(), fmt.Sprintf("%d", r.Iteration)).Err()
	if err != nil {
		rs.rc.Del(rKey)
		return fmt.Errorf("indexing result for iteration %d: %v", r.Iteration, err)
	}
	if rs.ttl > 0 {
		rs.rc.Expire(rs.indexSetKey(), rs.ttl)
	}
	return nil
}

func (rs *redisStore) History(ctx context.Context) ([]graft.Result, error) {
	iterations, err := rs.rc.SMembers(rs.indexSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("retrieving run history: %v", err)
	}
	var history []graft.Result
	for _, it := range iterations {
		data, err := rs.rc.Get(fmt.Sprintf("%s:result:%s", rs.id, it)).Result()
		if err == redis.Nil {
			// the result expired after its index entry was read
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("retrieving result for iteration %s: %v", it, err)
		}
		r := graft.Result{}
		err = json.Unmarshal([]byte(data), &r)
		if err != nil {
			return nil, fmt.Errorf("decoding result for iteration %s: %v", it, err)
		}
		history = append(history, r)
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Iteration < history[j].Iteration
	})
	return history, nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return nil
}

func (rs *redisStore) resultKey(iteration int) string {
	return fmt.Sprintf("%s:result:%d", rs.id, iteration)
}

func (rs *redisStore) indexSetKey() string {
	return fmt.Sprintf("%s:results", rs.id)
}
