package geolife

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// pltFields is the expected comma-separated field count of a data line:
// latitude, longitude, reserved flag, altitude, serial day, date, time.
const pltFields = 7

// ParseFile parses one .plt file into its ordered raw points, skipping
// the fixed header. The returned sequence preserves file order. Any
// malformed line rejects the whole file with a ParseError.
func ParseFile(path string, headerLines int) ([]RawPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track file: %w", err)
	}
	defer f.Close()
	return Parse(f, path, headerLines)
}

// Parse reads points from r. The name is used for error reporting only.
// Parsing is a pure function of the stream, so callers restart by
// re-opening the source.
func Parse(r io.Reader, name string, headerLines int) ([]RawPoint, error) {
	scanner := bufio.NewScanner(r)

	var points []RawPoint
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= headerLines {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		point, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{File: name, Line: lineNo, Reason: err.Error()}
		}
		points = append(points, point)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track file %s: %w", name, err)
	}

	return points, nil
}

func parseLine(line string) (RawPoint, error) {
	fields := strings.Split(line, ",")
	if len(fields) != pltFields {
		return RawPoint{}, fmt.Errorf("expected %d fields, got %d", pltFields, len(fields))
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return RawPoint{}, fmt.Errorf("bad latitude %q", fields[0])
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return RawPoint{}, fmt.Errorf("bad longitude %q", fields[1])
	}
	if lat < -90 || lat > 90 {
		return RawPoint{}, fmt.Errorf("latitude %g out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return RawPoint{}, fmt.Errorf("longitude %g out of range", lon)
	}

	// Altitudes are recorded in feet, occasionally with a fractional
	// part; the dataset's own sentinel (-777) survives the truncation.
	altFloat, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return RawPoint{}, fmt.Errorf("bad altitude %q", fields[3])
	}

	ts, err := time.ParseInLocation(PointTimeLayout, fields[5]+" "+fields[6], time.UTC)
	if err != nil {
		return RawPoint{}, fmt.Errorf("bad timestamp %q %q", fields[5], fields[6])
	}

	return RawPoint{
		Lat:          lat,
		Lon:          lon,
		AltitudeFeet: int(altFloat),
		Timestamp:    ts,
	}, nil
}

// CountLines returns the raw line count of the file at path, header
// included. The size filter runs on this count before any parsing.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open track file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to count lines in %s: %w", path, err)
	}
	return count, nil
}
