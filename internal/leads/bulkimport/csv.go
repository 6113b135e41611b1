// Package bulkimport processes CSV uploads of leads with per-row failure
// semantics.
package bulkimport

import "strings"

// Parse tokenizes raw delimited text into rows of string fields. It is purely
// lexical and knows nothing about headers or schemas.
//
// Lines split on \n with an optional trailing \r. Blank lines are skipped
// entirely and do not count as empty rows. Within a line, fields split on
// commas except inside double-quoted spans, where a doubled quote is an
// escaped literal quote. Empty or whitespace-only input yields zero rows.
func Parse(raw string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitFields(line))
	}
	return rows
}

func splitFields(line string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}
