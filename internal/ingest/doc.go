// Package ingest runs a pasted listing through authorization, parsing, and
// catalog storage, and summarizes what happened.
//
// A batch is rejected up front when the uploader is not authorized or when
// nothing at all could be parsed. Otherwise every parsed record is offered to
// the catalog in order; duplicates are counted as skipped and invalid records
// are reported as bounded per-entry errors. A storage failure aborts the rest
// of the batch and is returned alongside the partial report.
package ingest
