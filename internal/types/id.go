// README: Common identifier type shared by the scheduling modules.
package types

import "github.com/google/uuid"

// ID identifies requests, drivers, batches and runs.
type ID string

func (id ID) String() string { return string(id) }

// NewID returns a random identifier for records created by the service itself.
func NewID() ID {
	return ID(uuid.NewString())
}
