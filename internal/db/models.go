package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-emotion-color/internal/emotion"
)

// Derivation is one stored text → color derivation.
type Derivation struct {
	ID           uuid.UUID
	InputText    string
	Distribution emotion.Distribution // stored as JSONB keyed by label
	Color        string               // #RRGGBB
	CreatedAt    time.Time
}
