// Package registry owns the mapping from declared commands to their
// remote-assigned IDs. Commands enter as pending declarations and are bound
// to IDs by the synchronizer's write-back.
package registry

import (
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/slashd/slashd/internal/command"
)

// Registry is a thread-safe store of declared and synced commands.
type Registry struct {
	mu            sync.RWMutex
	pending       []*command.Command
	byID          map[string]*command.Command
	sandboxGuilds []string
}

// New creates an empty registry. When sandbox guilds are given, commands
// declared without an explicit scope are forced into them, preventing
// accidental global publication during development.
func New(sandboxGuilds ...string) *Registry {
	return &Registry{
		byID:          make(map[string]*command.Command),
		sandboxGuilds: sandboxGuilds,
	}
}

// Add appends a command to the pending set, applying the sandbox scope to
// commands that declared neither guild scope nor explicit global scope.
func (r *Registry) Add(cmd *command.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sandboxGuilds) > 0 && len(cmd.GuildIDs) == 0 && !cmd.Global {
		cmd.GuildIDs = append([]string(nil), r.sandboxGuilds...)
	}
	r.pending = append(r.pending, cmd)
}

// Pending returns a snapshot of the declared, not-yet-bound commands in
// declaration order.
func (r *Registry) Pending() []*command.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*command.Command(nil), r.pending...)
}

// Bind assigns a remote ID to a command and makes it resolvable for
// dispatch. Rebinding the same ID replaces the previous entry, so the
// registry never holds two commands under one ID.
func (r *Registry) Bind(id string, cmd *command.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd.ID = id
	r.byID[id] = cmd
}

// ByID resolves a command by its remote ID.
func (r *Registry) ByID(id string) (*command.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byID[id]
	return cmd, ok
}

// Remove deletes a bound command by remote ID and returns it, or nil when
// no such command exists. The remote side is left untouched.
func (r *Registry) Remove(id string) *command.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	return cmd
}

// Get scans the bound commands for a name and type match. When guildIDs is
// non-nil the stored scope must match it exactly; a subset or superset is
// not a match.
func (r *Registry) Get(name string, guildIDs []string, typ discordgo.ApplicationCommandType) *command.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cmd := range r.byID {
		if cmd.Name != name || cmd.Type != typ {
			continue
		}
		if guildIDs != nil && !equalScope(cmd.GuildIDs, guildIDs) {
			continue
		}
		return cmd
	}
	return nil
}

// Commands returns a snapshot of every bound command.
func (r *Registry) Commands() []*command.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*command.Command, 0, len(r.byID))
	for _, cmd := range r.byID {
		out = append(out, cmd)
	}
	return out
}

func equalScope(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
