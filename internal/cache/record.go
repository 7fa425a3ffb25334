package cache

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// tokenLength is the length of the generated login token.
// The cloud treats it as an opaque per-installation secret.
const tokenLength = 32

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Record is the persisted cache structure.
//
// It holds the session identity plus, per device, the partial
// sub-trees (summary, avatar, info, settings, events) merged in so
// far. Device sub-trees stay JSON-shaped because the cloud returns
// opaque extra fields that must round-trip unmodified.
type Record struct {
	AppID       string                    `json:"app_id"`
	ClientID    string                    `json:"client_id"`
	Token       string                    `json:"token"`
	AccessToken string                    `json:"access_token"`
	Devices     map[string]map[string]any `json:"devices"`
}

// NewRecord generates a fresh cache record with a new random
// installation identity and no access token.
func NewRecord() *Record {
	return &Record{
		AppID:    uuid.NewString(),
		ClientID: uuid.NewString(),
		Token:    genToken(),
		Devices:  make(map[string]map[string]any),
	}
}

// genToken generates a random alphanumeric login token.
func genToken() string {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a broken
		// entropy source is not recoverable here.
		panic(fmt.Sprintf("cache: reading random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}

// MergeDevice merges a partial sub-tree for one device into the record.
// The sub-tree is stored under its resource name (for example
// "summary" or "events") and merged per the package merge rule.
func (r *Record) MergeDevice(deviceID string, partial map[string]any) {
	if r.Devices == nil {
		r.Devices = make(map[string]map[string]any)
	}
	existing := r.Devices[deviceID]
	r.Devices[deviceID] = Merge(existing, partial)
}

// Device returns the cached partial sub-trees for a device, or nil if
// the device has never been cached. The returned map is a deep copy;
// callers can modify it freely.
func (r *Record) Device(deviceID string) map[string]any {
	return DeepCopy(r.Devices[deviceID])
}

// RemoveDevice drops a device's cached sub-trees from the record.
func (r *Record) RemoveDevice(deviceID string) {
	delete(r.Devices, deviceID)
}

// asMap converts the record to its JSON-shaped map form for merging.
func (r *Record) asMap() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return m, nil
}

// recordFromMap converts a JSON-shaped map back to a Record.
func recordFromMap(m map[string]any) (*Record, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding merged record: %w", err)
	}
	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decoding merged record: %w", err)
	}
	if rec.Devices == nil {
		rec.Devices = make(map[string]map[string]any)
	}
	return rec, nil
}
