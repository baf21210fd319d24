// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// SourceDatabase identifies one of the supported literature databases.
type SourceDatabase string

const (
	PubMed    SourceDatabase = "pubmed"
	EuropePMC SourceDatabase = "europepmc"
	OpenAlex  SourceDatabase = "openalex"
)

// UnknownPriority ranks records whose source is not one of the known databases.
const UnknownPriority = 999

// ErrUnknownDatabase is returned when a name does not map to a supported database.
var ErrUnknownDatabase = errors.New("unknown database")

// AllDatabases lists the supported databases in priority order.
func AllDatabases() []SourceDatabase {
	return []SourceDatabase{PubMed, EuropePMC, OpenAlex}
}

// ParseSourceDatabase maps a case-insensitive name to a SourceDatabase.
func ParseSourceDatabase(name string) (SourceDatabase, error) {
	switch db := SourceDatabase(strings.ToLower(strings.TrimSpace(name))); db {
	case PubMed, EuropePMC, OpenAlex:
		return db, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: pubmed, europepmc, openalex)", ErrUnknownDatabase, name)
	}
}

// Priority returns the rank used when choosing between duplicate records.
// Lower wins: pubmed=1, europepmc=2, openalex=3, anything else 999.
func (d SourceDatabase) Priority() int {
	switch d {
	case PubMed:
		return 1
	case EuropePMC:
		return 2
	case OpenAlex:
		return 3
	default:
		return UnknownPriority
	}
}

// DisplayName returns the human-readable database name.
func (d SourceDatabase) DisplayName() string {
	switch d {
	case PubMed:
		return "PubMed"
	case EuropePMC:
		return "Europe PMC"
	case OpenAlex:
		return "OpenAlex"
	default:
		return string(d)
	}
}
