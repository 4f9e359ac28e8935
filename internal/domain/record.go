package domain

import "time"

// DedupRecord tracks the first sighting of a fingerprint within a group
type DedupRecord struct {
	FirstMessageID int64     `json:"first_message_id"`
	FirstSeenAt    time.Time `json:"first_seen_at"`
	DuplicateCount int       `json:"duplicate_count"`
}

// NewDedupRecord creates a record for a message seen for the first time
func NewDedupRecord(messageID int64, seenAt time.Time) DedupRecord {
	return DedupRecord{
		FirstMessageID: messageID,
		FirstSeenAt:    seenAt,
		DuplicateCount: 0,
	}
}

// IsExpired reports whether the record was first seen before cutoff
func (r DedupRecord) IsExpired(cutoff time.Time) bool {
	return r.FirstSeenAt.Before(cutoff)
}

// Snapshot is a full image of the dedup table: group -> fingerprint -> record
type Snapshot map[string]map[string]DedupRecord

// EntryCount returns the number of fingerprints across all groups
func (s Snapshot) EntryCount() int {
	total := 0
	for _, group := range s {
		total += len(group)
	}
	return total
}

// DedupStats represents dedup table statistics
type DedupStats struct {
	Groups             int          `json:"groups"`
	UniqueFingerprints int          `json:"unique_fingerprints"`
	DuplicatesRemoved  int64        `json:"duplicates_removed"`
	PerGroup           []GroupStats `json:"per_group"`
}

// GroupStats represents statistics for a single group
type GroupStats struct {
	GroupID            string `json:"group_id"`
	UniqueFingerprints int    `json:"unique_fingerprints"`
	DuplicatesRemoved  int64  `json:"duplicates_removed"`
}
