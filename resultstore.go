package graft

import (
	"context"
	"sort"
	"sync"
)

/*
ResultStore is an interface to manage a store where extraction
results can be published and the run history retrieved. The in-memory
implementation backs single-process runs; redis-backed stores let
several worker processes share one run's history.

All its methods take a context that may allow cancelling the
operation (thus forcing the return of an error) if the implementation
allows it.
*/
type ResultStore interface {
	// Put publishes the result of one iteration. It returns an
	// error if the result cannot be stored.
	Put(ctx context.Context, r Result) error
	// History returns every result published so far, ordered by
	// iteration index, or an error if the store cannot be
	// queried.
	History(ctx context.Context) ([]Result, error)
	// Close closes the store; implementations should free any
	// resources in use. It returns an error if the close cannot
	// be completed.
	Close(ctx context.Context) error
}

type memoryResultStore struct {
	results []Result
	lock    *sync.RWMutex
}

// NewMemoryResultStore returns an implementation of ResultStore with
// the process memory space as underlying backend.
func NewMemoryResultStore() ResultStore {
	return &memoryResultStore{lock: &sync.RWMutex{}}
}

func (mrs *memoryResultStore) Put(ctx context.Context, r Result) error {
	return mrs.withLock(ctx, func(ctx context.Context) error {
		mrs.results = append(mrs.results, r)
		return nil
	})
}

func (mrs *memoryResultStore) History(ctx context.Context) ([]Result, error) {
	var history []Result
	err := mrs.withRLock(ctx, func(ctx context.Context) error {
		history = append(history, mrs.results...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Iteration < history[j].Iteration
	})
	return history, nil
}

func (mrs *memoryResultStore) Close(ctx context.Context) error {
	return nil
}

func (mrs *memoryResultStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mrs.lock.Lock()
		select {
		case <-ctx.Done():
			mrs.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mrs.lock.Unlock()
	}
	return f(ctx)
}

func (mrs *memoryResultStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mrs.lock.RLock()
		select {
		case <-ctx.Done():
			mrs.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mrs.lock.RUnlock()
	}
	return f(ctx)
}
