// Package keylifecycle tracks the lifecycle of HMAC-NEXTHASH-256 keys:
// generation, activation, rotation, deactivation, and zeroization, with
// a hash-chained audit trail for each key.
package keylifecycle

import (
	"crypto/rand"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"nexthash256"
	"nexthash256/internal/secutil"
)

// State is a key's position in its lifecycle.
type State int

const (
	StateGenerated State = iota
	StateActivated
	StateRotating
	StateDeactivated
	StateDestroyed
)

func (s State) String() string {
	names := [...]string{"Generated", "Activated", "Rotating", "Deactivated", "Destroyed"}
	if int(s) < 0 || int(s) >= len(names) {
		return "Unknown"
	}
	return names[s]
}

// AuditEntry is one event in a key's audit trail. Chain links the entry
// to the one before it by hashing the previous entry's own chain value
// together with this entry's EventType, Description and OperatorID (the
// Timestamp is not hashed), so a deleted or reordered entry changes
// every chain value after it.
type AuditEntry struct {
	Timestamp   time.Time
	EventType   string
	Description string
	OperatorID  string
	Chain       [nexthash256.Size]byte
}

func nextChain(prev [nexthash256.Size]byte, e AuditEntry) [nexthash256.Size]byte {
	h := nexthash256.New()
	h.Write(prev[:])
	h.Write([]byte(e.EventType))
	h.Write([]byte(e.Description))
	h.Write([]byte(e.OperatorID))
	var out [nexthash256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Key tracks one HMAC key's material and lifecycle state.
type Key struct {
	ID            string
	Material      [32]byte
	Generated     time.Time
	Activated     time.Time
	RotationDue   time.Time
	Deactivated   time.Time
	Destroyed     time.Time
	State         State
	RotationCount int
	CreatedBy     string
	Zeroized      bool

	mu    sync.RWMutex
	trail []AuditEntry
}

func (k *Key) appendAudit(eventType, description, operatorID string) {
	var prev [nexthash256.Size]byte
	if n := len(k.trail); n > 0 {
		prev = k.trail[n-1].Chain
	}
	e := AuditEntry{
		Timestamp:   time.Now(),
		EventType:   eventType,
		Description: description,
		OperatorID:  operatorID,
	}
	e.Chain = nextChain(prev, e)
	k.trail = append(k.trail, e)
}

// AuditTrail returns a copy of the key's audit trail.
func (k *Key) AuditTrail() []AuditEntry {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]AuditEntry, len(k.trail))
	copy(out, k.trail)
	return out
}

// Manager owns a set of keys and their lifecycle transitions.
type Manager struct {
	mu               sync.RWMutex
	keys             map[string]*Key
	store            Store
	rotationInterval time.Duration
}

// NewManager returns a Manager persisting key metadata through store
// (may be nil for an in-memory-only manager) with the given rotation
// interval.
func NewManager(store Store, rotationInterval time.Duration) *Manager {
	return &Manager{
		keys:             make(map[string]*Key),
		store:            store,
		rotationInterval: rotationInterval,
	}
}

// Generate creates a new key in the Generated state.
func (m *Manager) Generate(keyID, operatorID string) (*Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.keys[keyID]; exists {
		return nil, fmt.Errorf("keylifecycle: key %q already exists", keyID)
	}

	var material [32]byte
	if _, err := rand.Read(material[:]); err != nil {
		return nil, fmt.Errorf("keylifecycle: generating key material: %w", err)
	}

	k := &Key{
		ID:        keyID,
		Material:  material,
		Generated: time.Now(),
		State:     StateGenerated,
		CreatedBy: operatorID,
	}
	if err := secutil.Lock(k.Material[:]); err != nil {
		log.Printf("keylifecycle: could not lock key %q material in RAM: %v", keyID, err)
	}
	k.appendAudit("KEY_GENERATED", fmt.Sprintf("key %s generated", keyID), operatorID)

	if m.store != nil {
		if err := m.store.PutKey(k); err != nil {
			return nil, fmt.Errorf("keylifecycle: persisting key: %w", err)
		}
	}

	m.keys[keyID] = k
	return k, nil
}

// Activate moves a Generated key to Activated and schedules its next
// rotation.
func (m *Manager) Activate(keyID, operatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, exists := m.keys[keyID]
	if !exists {
		return fmt.Errorf("keylifecycle: key %q not found", keyID)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.State != StateGenerated {
		return fmt.Errorf("keylifecycle: key %q must be Generated to activate, is %s", keyID, k.State)
	}

	k.Activated = time.Now()
	k.RotationDue = k.Activated.Add(m.rotationInterval)
	k.State = StateActivated
	k.appendAudit("KEY_ACTIVATED", fmt.Sprintf("key %s activated", keyID), operatorID)

	if m.store != nil {
		return m.store.PutKey(k)
	}
	return nil
}

// Rotate replaces an Activated key's material with fresh random bytes.
func (m *Manager) Rotate(keyID, operatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, exists := m.keys[keyID]
	if !exists {
		return fmt.Errorf("keylifecycle: key %q not found", keyID)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.State != StateActivated {
		return fmt.Errorf("keylifecycle: only Activated keys can be rotated, %q is %s", keyID, k.State)
	}

	var material [32]byte
	if _, err := rand.Read(material[:]); err != nil {
		return fmt.Errorf("keylifecycle: generating rotated key material: %w", err)
	}

	secutil.Unlock(k.Material[:])
	k.Material = material
	if err := secutil.Lock(k.Material[:]); err != nil {
		log.Printf("keylifecycle: could not lock key %q material in RAM: %v", keyID, err)
	}
	k.RotationCount++
	k.RotationDue = time.Now().Add(m.rotationInterval)
	k.appendAudit("KEY_ROTATED", fmt.Sprintf("key %s rotated (count %d)", keyID, k.RotationCount), operatorID)

	if m.store != nil {
		return m.store.PutKey(k)
	}
	return nil
}

// Deactivate moves a key out of active use without destroying its
// material.
func (m *Manager) Deactivate(keyID, operatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, exists := m.keys[keyID]
	if !exists {
		return fmt.Errorf("keylifecycle: key %q not found", keyID)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.Deactivated = time.Now()
	k.State = StateDeactivated
	k.appendAudit("KEY_DEACTIVATED", fmt.Sprintf("key %s deactivated", keyID), operatorID)

	if m.store != nil {
		return m.store.PutKey(k)
	}
	return nil
}

// Zeroize overwrites a key's material and marks it Destroyed. The
// overwrite loop plus runtime.KeepAlive matches the obliteration
// discipline used by the hash context itself.
func (m *Manager) Zeroize(keyID, operatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, exists := m.keys[keyID]
	if !exists {
		return fmt.Errorf("keylifecycle: key %q not found", keyID)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	for i := range k.Material {
		k.Material[i] = 0
	}
	runtime.KeepAlive(k)
	secutil.Unlock(k.Material[:])

	k.Destroyed = time.Now()
	k.State = StateDestroyed
	k.Zeroized = true
	k.appendAudit("KEY_ZEROIZED", fmt.Sprintf("key %s zeroized", keyID), operatorID)

	if m.store != nil {
		return m.store.PutKey(k)
	}
	return nil
}

// Status returns the key identified by keyID.
func (m *Manager) Status(keyID string) (*Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k, exists := m.keys[keyID]
	if !exists {
		return nil, fmt.Errorf("keylifecycle: key %q not found", keyID)
	}
	return k, nil
}

// NeedingRotation returns the IDs of all Activated keys whose
// RotationDue has passed.
func (m *Manager) NeedingRotation() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var due []string
	for id, k := range m.keys {
		k.mu.RLock()
		if k.State == StateActivated && now.After(k.RotationDue) {
			due = append(due, id)
		}
		k.mu.RUnlock()
	}
	return due
}
