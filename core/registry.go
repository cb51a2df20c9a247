package core

import (
	"context"
	"fmt"
	"strings"
)

// CallbackHandler handles callbacks whose tag starts with the prefix it was
// registered under. The handler is responsible for answering the callback.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, cb *Callback) error
}

// CallbackHandlerFunc adapts a function to CallbackHandler.
type CallbackHandlerFunc func(ctx context.Context, cb *Callback) error

func (f CallbackHandlerFunc) HandleCallback(ctx context.Context, cb *Callback) error {
	return f(ctx, cb)
}

type registryEntry struct {
	prefix  string
	handler CallbackHandler
}

// RegistryBuilder collects prefix registrations at startup.
type RegistryBuilder struct {
	entries []registryEntry
}

// NewRegistryBuilder creates an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// Register adds a handler for tags starting with prefix. Prefixes that
// overlap an existing one (either is a prefix of the other) are rejected.
func (b *RegistryBuilder) Register(prefix string, h CallbackHandler) error {
	if prefix == "" {
		return fmt.Errorf("empty callback prefix")
	}
	if h == nil {
		return fmt.Errorf("nil handler for prefix %q", prefix)
	}
	for _, e := range b.entries {
		if strings.HasPrefix(prefix, e.prefix) || strings.HasPrefix(e.prefix, prefix) {
			return fmt.Errorf("callback prefix %q overlaps registered prefix %q", prefix, e.prefix)
		}
	}
	b.entries = append(b.entries, registryEntry{prefix: prefix, handler: h})
	return nil
}

// Build returns an immutable registry. Later registrations on the builder
// do not affect it.
func (b *RegistryBuilder) Build() *HandlerRegistry {
	entries := make([]registryEntry, len(b.entries))
	copy(entries, b.entries)
	return &HandlerRegistry{entries: entries}
}

// HandlerRegistry maps callback tag prefixes to handlers. It is read-only
// and safe for concurrent use.
type HandlerRegistry struct {
	entries []registryEntry
}

// Resolve returns the handler whose prefix matches tag, checked in
// registration order, or nil.
func (r *HandlerRegistry) Resolve(tag string) CallbackHandler {
	if tag == "" {
		return nil
	}
	for _, e := range r.entries {
		if strings.HasPrefix(tag, e.prefix) {
			return e.handler
		}
	}
	return nil
}

// Prefixes returns the registered prefixes in registration order.
func (r *HandlerRegistry) Prefixes() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.prefix
	}
	return out
}
