// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"github.com/rs/zerolog"

	"github.com/pdiddy/litsearch/pkg/types"
)

const logTitleLen = 40

// LogDiscards writes one info event per discarded record, group by group.
func LogDiscards(log zerolog.Logger, discards []Discard) {
	for _, d := range discards {
		ev := log.Info().
			Str("source", string(d.Article.SourceDatabase)).
			Str("authors", d.Article.Authors).
			Str("title", truncate(d.Article.Title, logTitleLen)).
			Str("year", d.Article.Year).
			Str("kept_source", string(d.Kept.SourceDatabase)).
			Str("kept_id", KeptID(d.Kept)).
			Str("reason", string(d.Reason))
		if d.Evidence != EvidenceNone {
			ev = ev.Str("evidence", string(d.Evidence))
		}
		ev.Msg("duplicate discarded")
	}
}

// KeptID identifies a kept record by DOI, falling back to its URL.
func KeptID(a types.Article) string {
	if !types.IsMissing(a.DOI) {
		return a.DOI
	}
	return types.OrNA(a.URL)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
