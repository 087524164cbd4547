// Package engine provides the business logic for CSV ingestion and schema
// mapping.
//
// This package is the heart of the importer, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized as a pipeline of small, pure stages:
//
//   - Parser: raw CSV text in, headers plus ordered string rows out.
//   - Classifier: scores headers against per-entity-type term patterns and
//     picks the most likely entity type with a confidence value.
//   - Mapper: matches every source header to a canonical schema field using
//     exact, containment, and edit-distance comparisons.
//   - Validator: checks that the mapping and dataset satisfy per-type and
//     global minimum requirements before a commit is allowed.
//   - Session: holds the mutable mapping state for one upload attempt and
//     gates the commit on validation passing.
//
// # Schema Registry
//
// Canonical schemas, alias tables, and classifier patterns are literal
// constants keyed by the [EntityType] enum. The registry is read-only and
// loaded once; lookups are exhaustive by construction.
//
// # Commit Flow
//
// A [Session] moves Idle -> Parsed -> Committing -> Committed. Mapping edits
// keep the session in Parsed and re-run validation. Storage failures return
// the session to Parsed so the user can retry without re-uploading; the
// storage collaborator is abstracted behind the [Committer] interface.
package engine
