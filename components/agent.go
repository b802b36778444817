// Package components defines ECS components for the simulation.
package components

// Agent holds an agent's identity.
type Agent struct {
	ID uint32
}

// Mobility tracks whether an agent may move and its isolation window.
// IsolationCountdown drops by one every tick from construction and may go
// negative; only the tick it reads exactly zero matters.
type Mobility struct {
	CanMove            bool
	IsolationCountdown int
}

// Contacts is the set of agent IDs an agent has shared a cell with.
// It is never reset and never contains the owner's own ID.
type Contacts struct {
	IDs map[uint32]struct{}
}

// NewContacts returns an empty contact set.
func NewContacts() Contacts {
	return Contacts{IDs: make(map[uint32]struct{})}
}

// Add records id. Adding an existing id is a no-op.
func (c *Contacts) Add(id uint32) {
	c.IDs[id] = struct{}{}
}

// Has reports whether id has been recorded.
func (c *Contacts) Has(id uint32) bool {
	_, ok := c.IDs[id]
	return ok
}

// Len returns the number of distinct contacts.
func (c *Contacts) Len() int {
	return len(c.IDs)
}
