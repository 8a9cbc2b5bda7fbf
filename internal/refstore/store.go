// Package refstore persists the reference values checks compare against.
package refstore

import (
	"context"
	"fmt"

	"github.com/jonathan/markup-checker/internal/types"
)

// Store is a string key-value store. Last write wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// BatchSetter is implemented by stores that can write several keys atomically.
type BatchSetter interface {
	SetAll(ctx context.Context, values map[string]string) error
}

// StoreError wraps a backend failure for one key
type StoreError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("reference store %s '%s': %v", e.Op, e.Key, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ValidationError is returned by Save when the values are rejected
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid reference values: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid reference values: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Load reads every reference key. Missing keys default to the empty string.
func Load(ctx context.Context, s Store) (types.ReferenceValues, error) {
	var values types.ReferenceValues
	for _, key := range types.ReferenceKeys {
		v, ok, err := s.Get(ctx, key)
		if err != nil {
			return types.ReferenceValues{}, &StoreError{Op: "get", Key: key, Cause: err}
		}
		if ok {
			values.SetValue(key, v)
		}
	}
	return values, nil
}

// Save validates values and writes all three keys.
func Save(ctx context.Context, s Store, values types.ReferenceValues) error {
	if err := values.Validate(); err != nil {
		return &ValidationError{Message: "validation failed", Cause: err}
	}

	all := make(map[string]string, len(types.ReferenceKeys))
	for _, key := range types.ReferenceKeys {
		v, _ := values.Value(key)
		all[key] = v
	}

	if batch, ok := s.(BatchSetter); ok {
		if err := batch.SetAll(ctx, all); err != nil {
			return &StoreError{Op: "set", Key: "*", Cause: err}
		}
		return nil
	}

	for _, key := range types.ReferenceKeys {
		if err := s.Set(ctx, key, all[key]); err != nil {
			return &StoreError{Op: "set", Key: key, Cause: err}
		}
	}
	return nil
}

// SetOne updates a single reference key, leaving the others untouched.
func SetOne(ctx context.Context, s Store, key, value string) error {
	values, err := Load(ctx, s)
	if err != nil {
		return err
	}
	if !values.SetValue(key, value) {
		return &ValidationError{Message: fmt.Sprintf("unknown key '%s' (expected one of %v)", key, types.ReferenceKeys)}
	}
	return Save(ctx, s, values)
}
