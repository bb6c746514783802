// Package provenance defines the audit record describing how one
// identifier was transformed into another, and stores for persisting those
// records. Records are immutable once created: stages append, never edit.
package provenance

import "time"

// Record is one provenance entry. Confidence reflects the resolution or
// match method deterministically; the mapping from method to confidence
// lives with the component that produced the record.
type Record struct {
	Action         string    `json:"action"`
	SourceID       string    `json:"source_id"`
	SourceOntology string    `json:"source_ontology"`
	TargetID       string    `json:"target_id"`
	TargetOntology string    `json:"target_ontology"`
	Method         string    `json:"method"`
	Confidence     float64   `json:"confidence"`
	Stage          int       `json:"stage"`
	Timestamp      time.Time `json:"timestamp"`
}

// New creates a record stamped with the current time.
func New(action, sourceID, sourceOntology, targetID, targetOntology, method string, confidence float64, stage int) Record {
	return Record{
		Action:         action,
		SourceID:       sourceID,
		SourceOntology: sourceOntology,
		TargetID:       targetID,
		TargetOntology: targetOntology,
		Method:         method,
		Confidence:     confidence,
		Stage:          stage,
		Timestamp:      time.Now().UTC(),
	}
}
