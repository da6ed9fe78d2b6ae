// Package core provides the business logic for CSV batch imports.
//
// The package has no transport dependencies. The HTTP server in
// internal/web and the csvctl command both drive the same [Service].
//
// # Architecture
//
//   - Parsing: [ParseCSV] turns raw bytes into headers and typed rows.
//   - Schemas: categories register their system fields at init time via
//     [RegisterSchema]; see internal/core/fields.
//   - Mapping: [SuggestMapping] proposes header assignments and
//     [ValidateMapping] checks a user's choice.
//   - Service: imports, paginated queries, row edits, deletes and exports,
//     all scoped to an owner.
//   - Store: persistence sits behind the [Store] interface so Postgres,
//     SQLite and in-memory backends are interchangeable.
//
// # Import Flow
//
//  1. Client calls [Service.ImportBatch] with the uploaded bytes
//  2. The content is parsed; malformed CSV aborts with a [*ParseError]
//  3. An import slot is taken from the configured [ImportLimiter]
//  4. The raw upload is saved through the [ArtifactStore]
//  5. File and rows are written in one unit; on failure the artifact is removed
//
// # Error Handling
//
// Operations return one of [ErrUnauthorized], [ErrNotFound],
// [ErrTooManyImports], [*ParseError], [*ValidationError] or [*StorageError].
// [MapError] turns any of them into a user-facing message with a support code.
//
// # Audit Logging
//
// Every import, row edit, delete and export is written to the structured
// log as an "audit" record with a severity:
//
//   - Low: Exports
//   - Medium: Imports and row edits
//   - High: File deletions
package core
