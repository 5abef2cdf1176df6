package geolife

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/trajectory.report/internal/store"
)

// LabeledInterval is one labels.txt row: an assertion that the given
// transportation mode was used during exactly that time span. Consumed
// only during ingestion; never persisted.
type LabeledInterval struct {
	Start time.Time
	End   time.Time
	Mode  string
}

// LabelSet holds a user's labeled intervals indexed by start time, so a
// match is not linear in the label count (some users carry thousands).
type LabelSet struct {
	byStart map[int64][]LabeledInterval
	size    int
}

// NewLabelSet indexes the given intervals.
func NewLabelSet(intervals []LabeledInterval) *LabelSet {
	set := &LabelSet{
		byStart: make(map[int64][]LabeledInterval, len(intervals)),
		size:    len(intervals),
	}
	for _, iv := range intervals {
		key := iv.Start.Unix()
		set.byStart[key] = append(set.byStart[key], iv)
	}
	return set
}

// Len returns the number of indexed intervals.
func (s *LabelSet) Len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Match assigns a mode to an activity span. A label applies only when
// both boundaries match an interval exactly; any other overlap yields
// the unknown mode, which is not an error.
func (s *LabelSet) Match(start, end time.Time) store.Mode {
	if s == nil {
		return store.UnknownMode()
	}
	for _, iv := range s.byStart[start.Unix()] {
		if iv.End.Equal(end) {
			return store.NamedMode(iv.Mode)
		}
	}
	return store.UnknownMode()
}

// LoadLabels reads a labels.txt file. A missing file means the user has
// no labels: the caller receives an empty set and no error. A malformed
// file is reported so the caller can degrade to the same no-labels
// state with a warning.
func LoadLabels(path string) (*LabelSet, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewLabelSet(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	intervals, err := ParseLabels(f)
	if err != nil {
		return nil, fmt.Errorf("label file %s: %w", path, err)
	}
	return NewLabelSet(intervals), nil
}

// ParseLabels parses tab-separated label rows from r, skipping the
// single header line.
func ParseLabels(r io.Reader) ([]LabeledInterval, error) {
	scanner := bufio.NewScanner(r)

	var intervals []LabeledInterval
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue // column header
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 tab-separated fields, got %d", lineNo, len(fields))
		}

		start, err := time.ParseInLocation(LabelTimeLayout, fields[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start time %q", lineNo, fields[0])
		}
		end, err := time.ParseInLocation(LabelTimeLayout, fields[1], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad end time %q", lineNo, fields[1])
		}
		mode := strings.TrimSpace(fields[2])
		if mode == "" {
			return nil, fmt.Errorf("line %d: empty transportation mode", lineNo)
		}

		intervals = append(intervals, LabeledInterval{Start: start, End: end, Mode: mode})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	return intervals, nil
}
