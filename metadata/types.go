// Package metadata wraps the dataset/file metadata REST service, a
// PostgREST-conventioned API: operators like eq./lt./gte., order=field.dir,
// and mutating calls that return the affected row via Prefer:
// return=representation (§4.D).
package metadata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timestampLayout is the PostgREST wire format for timestamps: fixed
// six-digit fractional seconds and a colon in the UTC offset. It does not
// match encoding/json's default time.Time (RFC3339Nano) layout, so Timestamp
// carries its own (un)marshaling.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Timestamp wraps time.Time to (un)marshal the metadata service's exact wire
// format, e.g. "2021-02-03T21:21:57.713584+00:00".
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("metadata: timestamp is not a JSON string: %w", err)
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		return fmt.Errorf("metadata: timestamp %q does not match expected layout: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Dataset is a logical collection, sealed by NotifyComplete (I2).
type Dataset struct {
	DatasetID   uuid.UUID       `json:"dataset_id"`
	SystemID    string          `json:"system_id"`
	CreatedDate Timestamp       `json:"created_date"`
	Metadata    json.RawMessage `json:"metadata"`
	Files       []UploadedFile  `json:"files"`
}

// UploadedFile is a registered object, created after its bytes are durably
// committed to the object store.
type UploadedFile struct {
	FileID      uuid.UUID       `json:"file_id"`
	DatasetID   uuid.UUID       `json:"dataset_id"`
	CreatedDate Timestamp       `json:"created_date"`
	Key         string          `json:"key"`
	FileSize    int64           `json:"filesize"`
	Version     string          `json:"version"`
	Metadata    json.RawMessage `json:"metadata"`
}
