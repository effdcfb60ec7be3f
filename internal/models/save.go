package models

// SaveFormatVersion is stamped into every snapshot. Snapshots of other versions are rejected on read.
const SaveFormatVersion = "2.0"

// NightMode is the clock part of a snapshot.
type NightMode struct {
	CurrentTime float64  `json:"currentTime"`
	DayPhase    DayPhase `json:"dayPhase"`
	SanityLevel int      `json:"sanityLevel"`
}

// SaveSnapshot is the persisted format of a save slot or autosave entry.
type SaveSnapshot struct {
	Version   string    `json:"version"`
	Timestamp int64     `json:"timestamp"`
	GameState GameState `json:"gameState"`
	NightMode NightMode `json:"nightMode"`
	Checksum  int64     `json:"checksum"`

	Corrupted      bool           `json:"corrupted,omitempty"`
	CorruptionType CorruptionType `json:"corruptionType,omitempty"`
	// OriginalData is the base64 encoded JSON of the snapshot before it was corrupted.
	OriginalData string `json:"originalData,omitempty"`
}

// CorruptionType labels how a corrupted save pretends to have broken.
type CorruptionType string

const (
	CorruptionMemory     CorruptionType = "memory_corruption"
	CorruptionIntegrity  CorruptionType = "data_integrity_error"
	CorruptionChecksum   CorruptionType = "checksum_mismatch"
	CorruptionVersion    CorruptionType = "version_incompatibility"
	CorruptionFileSystem CorruptionType = "file_system_error"
)

// CorruptionTypes lists every corruption label in a fixed order.
var CorruptionTypes = []CorruptionType{
	CorruptionMemory,
	CorruptionIntegrity,
	CorruptionChecksum,
	CorruptionVersion,
	CorruptionFileSystem,
}

// SlotInfo is the summary shown in the save slot list.
type SlotInfo struct {
	Key           string `json:"key"`
	Timestamp     int64  `json:"timestamp"`
	Case          string `json:"case"`
	Sanity        int    `json:"sanity"`
	EvidenceCount int    `json:"evidenceCount"`
	Corrupted     bool   `json:"corrupted"`
}
