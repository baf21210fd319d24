// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/pdiddy/litsearch/pkg/types"
)

// WriteCSV writes articles with the header authors,title,year,doi,url,abstract
// and, when withSource is set, a trailing source_database column. Title and
// abstract are always quoted; authors only when they contain a comma, quote
// or newline. Missing values are written as N/A.
func WriteCSV(w io.Writer, articles []types.Article, withSource bool) error {
	bw := bufio.NewWriter(w)

	header := "authors,title,year,doi,url,abstract"
	if withSource {
		header += ",source_database"
	}
	bw.WriteString(header + "\n")

	for _, a := range articles {
		fields := []string{
			quoteIfNeeded(types.OrNA(a.Authors)),
			quote(types.OrNA(a.Title)),
			types.OrNA(a.Year),
			types.OrNA(a.DOI),
			types.OrNA(a.URL),
			quote(types.OrNA(a.Abstract)),
		}
		if withSource {
			fields = append(fields, types.OrNA(string(a.SourceDatabase)))
		}
		bw.WriteString(strings.Join(fields, ",") + "\n")
	}

	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return quote(s)
	}
	return s
}
