// Package ingest brings contacts into the sequence: YAML import and
// AI enrichment of the first-email merge tags.
package ingest
