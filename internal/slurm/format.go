package slurm

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// fieldSeparator splits values in --Format output. It is attached to every
// field as a suffix, so it cannot be confused with the spaces Slurm uses for
// padding.
const fieldSeparator = "|"

// formatString converts field names to a --Format argument. Every field gets
// an unlimited width (":0", the default truncates at 20 characters) and all
// but the last get the separator as suffix.
func formatString(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ":0"
		if i < len(fields)-1 {
			parts[i] += fieldSeparator
		}
	}
	return strings.Join(parts, ",")
}

// table is the parsed form of sinfo/squeue --Format output.
type table struct {
	source  string
	columns map[string]int
	rows    []row
}

type row struct {
	t      *table
	line   int
	values []string
}

// readTable parses separator-delimited output with a header line. The last
// column absorbs any stray separators, since job names may contain them.
func readTable(source string, data []byte) (*table, error) {
	t := &table{source: source, columns: make(map[string]int)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		if len(t.columns) == 0 {
			for i, name := range strings.Split(text, fieldSeparator) {
				t.columns[strings.TrimSpace(name)] = i
			}
			continue
		}

		values := strings.SplitN(text, fieldSeparator, len(t.columns))
		if len(values) != len(t.columns) {
			return nil, fmt.Errorf("%s line %d: expected %d fields, found %d", source, line, len(t.columns), len(values))
		}
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		t.rows = append(t.rows, row{t: t, line: line, values: values})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s output: %w", source, err)
	}
	return t, nil
}

// require verifies that every named column is present in the header.
func (t *table) require(columns ...string) error {
	if len(t.columns) == 0 {
		return nil
	}
	var missing []string
	for _, c := range columns {
		if _, ok := t.columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s output is missing columns %s", t.source, strings.Join(missing, ", "))
	}
	return nil
}

func (r row) get(column string) string {
	return r.values[r.t.columns[column]]
}

// errorf annotates an error with the row position.
func (r row) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%s line %d: "+format, append([]interface{}{r.t.source, r.line}, args...)...)
}

// uniqueCount returns the number of distinct values.
func uniqueCount(values []string) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	n := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			n++
		}
	}
	return n
}
