package domain

import "time"

// Snapshot captures the persistable position of one engine instance. The
// topology is rebuilt from its chart definition on restore; only the
// current pointer travels.
type Snapshot struct {
	// InstanceID identifies the engine instance the snapshot belongs to.
	InstanceID string `json:"instance_id" cbor:"1,keyasint"`

	// Chart names the definition the instance was assembled from.
	Chart string `json:"chart,omitempty" cbor:"2,keyasint,omitempty"`

	// Current is the active state at snapshot time.
	Current StateID `json:"current" cbor:"3,keyasint"`

	// UpdatedAt is the wall-clock time of the last applied dispatch.
	UpdatedAt time.Time `json:"updated_at" cbor:"4,keyasint"`
}

// NewSnapshot creates a snapshot positioned at current.
func NewSnapshot(instanceID, chart string, current StateID) *Snapshot {
	return &Snapshot{
		InstanceID: instanceID,
		Chart:      chart,
		Current:    current,
		UpdatedAt:  time.Now().UTC(),
	}
}

// Clone returns an independent copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
