package tracking

import "time"

// Outcome records which mutator result produced a tracking record.
type Outcome string

const (
	// OutcomeTagged means a descriptor was injected.
	OutcomeTagged Outcome = "tagged"
	// OutcomeAlreadyTagged means the archive already carried a descriptor.
	OutcomeAlreadyTagged Outcome = "already_tagged"
)

const statusProcessed = "processed"

// Mark is one pending record for MarkProcessedBatch.
type Mark struct {
	Path    string
	Outcome Outcome
}

// Record is a stored row.
type Record struct {
	Path        string
	Status      string
	Outcome     Outcome
	FirstSeen   time.Time
	ProcessedAt time.Time
}

// Stats summarizes the store contents.
type Stats struct {
	Total         int
	Tagged        int
	AlreadyTagged int
	Unknown       int
	LastProcessed time.Time
}

// Health captures diagnostic information about the database.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalRecords     int
	Error            string
}
