// Package services implements the driving ports: session lifecycle,
// ingestion, hybrid retrieval and answering. Services hold the business
// rules and delegate all I/O to driven adapters through port interfaces.
//
// Services are pure Go with no CGO or external dependencies.
package services
