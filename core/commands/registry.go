package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jdelaire/bingobot/core/menu"
)

// Request carries the context of a slash command.
type Request struct {
	ChatID      int64
	UserID      int64
	Username    string
	DisplayName string
	Args        string
}

// Reply is sent back to the requesting chat as a new message.
type Reply struct {
	Text     string
	Keyboard menu.Keyboard
}

// Command is a slash command handler.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, req Request) (Reply, error)
}

// Registry holds registered commands keyed by name.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]Command)}
}

// Register adds a command. Returns an error if the name is already registered.
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if _, exists := r.cmds[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}
	r.cmds[name] = cmd
	return nil
}

// Get returns the command with the given name, or nil if not found.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cmds[name]
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command, len(names))
	for i, name := range names {
		result[i] = r.cmds[name]
	}
	return result
}
