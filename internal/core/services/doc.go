// Package services contains the core pipeline logic: ingestion
// (chunk, embed, index), retrieval and answer synthesis. Services
// depend only on the driven ports, never on concrete adapters, and
// implement the driving ports consumed by the CLI and MCP surfaces.
package services
