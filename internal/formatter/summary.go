// Package formatter renders terminal summaries of an output tree.
package formatter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"areagroup/internal/models"
)

// GroupSummary renders one markdown table row per group with its record
// count and the first record's name, followed by a total row. Area-code
// groups come first in key order; the no-area-code group follows them.
func GroupSummary(tree models.OutputTree) string {
	groups := make([]models.GroupKey, 0, len(tree))
	for k := range tree {
		groups = append(groups, k)
	}

	sort.Slice(groups, func(i, j int) bool {
		if a, b := groups[i].IsAreaCode(), groups[j].IsAreaCode(); a != b {
			return a
		}

		return groups[i] < groups[j]
	})

	rows := []string{
		"| Group | Records | Example |",
		"| --- | --- | --- |",
	}

	for _, gk := range groups {
		group := tree[gk]
		rows = append(rows, "| "+escapeCell(string(gk))+" | "+strconv.Itoa(len(group))+" | "+escapeCell(example(group))+" |")
	}

	rows = append(rows, "| Total | "+strconv.Itoa(tree.Len())+" |  |")

	return strings.Join(AlignTable(rows), "\n")
}

// example returns "First Last" of the record with the smallest key.
func example(group map[models.RecordKey]models.NormalizedRecord) string {
	var first models.RecordKey

	for k := range group {
		if first == "" || k < first {
			first = k
		}
	}

	rec := group[first]

	return strings.TrimSpace(rec[models.FieldFirstName] + " " + rec[models.FieldLastName])
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// AlignTable pads the cells of a markdown table so every column has the
// display width of its widest cell. A separator row in second position is
// redrawn with dashes. Tables shorter than two rows are returned unchanged.
func AlignTable(rows []string) []string {
	if len(rows) < 2 {
		return rows
	}

	// 1. Parse all cells
	table := make([][]string, 0, len(rows))

	for _, row := range rows {
		table = append(table, splitRow(row))
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	// 2. Identify separator row
	separatorRowIdx := -1

	if isSeparator(table[1]) {
		separatorRowIdx = 1
	}

	// 3. Calculate max widths (using display width)
	colWidths := make([]int, colCount)

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	// 4. Reconstruct lines
	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			if i == separatorRowIdx {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(runewidth.FillRight(content, colWidths[j]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

// splitRow splits a "| a | b |" line into trimmed cells, honoring "\|".
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")

	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}

	var (
		cells []string
		cell  strings.Builder
	)

	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cell.WriteString(`\|`)
			i++
		case row[i] == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(row[i])
		}
	}

	return append(cells, strings.TrimSpace(cell.String()))
}

func isSeparator(row []string) bool {
	for _, cell := range row {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" {
			return false
		}
	}

	return true
}
