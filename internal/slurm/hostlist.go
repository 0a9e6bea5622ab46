package slurm

import (
	"fmt"
	"strconv"
	"strings"
)

// maxHostlistSize bounds expansion of ranges like node[0-99999999].
const maxHostlistSize = 1 << 16

// ExpandHostlist expands Slurm hostlist notation into node names, e.g.
// "node[01-03,07],gpu1" becomes node01 node02 node03 node07 gpu1.
// Empty lists and the placeholders "(null)" and "n/a" yield no names.
func ExpandHostlist(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "(null)", "n/a":
		return nil, nil
	}

	entries, err := splitHostlist(value)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		expanded, err := expandHost(entry)
		if err != nil {
			return nil, err
		}
		names = append(names, expanded...)
		if len(names) > maxHostlistSize {
			return nil, fmt.Errorf("hostlist %q expands to more than %d names", value, maxHostlistSize)
		}
	}
	return names, nil
}

// splitHostlist splits on commas outside of brackets.
func splitHostlist(value string) ([]string, error) {
	var entries []string
	depth, start := 0, 0
	for i, c := range value {
		switch c {
		case '[':
			depth++
			if depth > 1 {
				return nil, fmt.Errorf("nested brackets in hostlist %q", value)
			}
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in hostlist %q", value)
			}
		case ',':
			if depth == 0 {
				if entry := value[start:i]; entry != "" {
					entries = append(entries, entry)
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in hostlist %q", value)
	}
	if entry := value[start:]; entry != "" {
		entries = append(entries, entry)
	}
	return entries, nil
}

// expandHost expands every bracket group of one entry, so
// "r[1-2]n[1-2]" yields r1n1 r1n2 r2n1 r2n2.
func expandHost(entry string) ([]string, error) {
	open := strings.IndexByte(entry, '[')
	if open < 0 {
		return []string{entry}, nil
	}
	closing := strings.IndexByte(entry[open:], ']')
	if closing < 0 {
		return nil, fmt.Errorf("unbalanced brackets in hostlist entry %q", entry)
	}
	closing += open

	prefix := entry[:open]
	suffixes, err := expandHost(entry[closing+1:])
	if err != nil {
		return nil, err
	}

	var names []string
	for _, part := range strings.Split(entry[open+1:closing], ",") {
		ids, err := expandRange(part)
		if err != nil {
			return nil, fmt.Errorf("hostlist entry %q: %w", entry, err)
		}
		for _, id := range ids {
			for _, suffix := range suffixes {
				names = append(names, prefix+id+suffix)
			}
		}
		if len(names) > maxHostlistSize {
			return nil, fmt.Errorf("hostlist entry %q expands to more than %d names", entry, maxHostlistSize)
		}
	}
	return names, nil
}

// expandRange expands "01-03" to 01 02 03, keeping the width of the lower
// bound. A single number is returned as is.
func expandRange(part string) ([]string, error) {
	lo, hi, isRange := strings.Cut(part, "-")
	if !isRange {
		if _, err := strconv.ParseUint(lo, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid range %q", part)
		}
		return []string{lo}, nil
	}

	first, err := strconv.ParseUint(lo, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid range %q", part)
	}
	last, err := strconv.ParseUint(hi, 10, 64)
	if err != nil || last < first {
		return nil, fmt.Errorf("invalid range %q", part)
	}
	if last-first >= maxHostlistSize {
		return nil, fmt.Errorf("range %q is too large", part)
	}

	width := len(lo)
	ids := make([]string, 0, last-first+1)
	for n := first; n <= last; n++ {
		ids = append(ids, fmt.Sprintf("%0*d", width, n))
	}
	return ids, nil
}
