package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/banshee-data/trajectory.report/internal/geo"
)

// Memory is an in-process Store used in tests and as a lightweight
// interchangeable backend. All methods are safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	users       map[string]User
	activities  []Activity
	activityKey map[activityKey]struct{}
	points      map[int64][]TrackPoint // by activity ID, timestamp-ordered
	nextAct     int64
	nextPoint   int64
}

type activityKey struct {
	userID string
	start  int64 // unix seconds
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]User),
		activityKey: make(map[activityKey]struct{}),
		points:      make(map[int64][]TrackPoint),
	}
}

func (m *Memory) CreateUser(ctx context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return ErrDuplicate
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) SaveActivity(ctx context.Context, a *Activity, points []TrackPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := activityKey{userID: a.UserID, start: a.StartTime.Unix()}
	if _, ok := m.activityKey[key]; ok {
		return ErrDuplicate
	}

	m.nextAct++
	a.ID = m.nextAct
	m.activityKey[key] = struct{}{}
	m.activities = append(m.activities, *a)

	stored := make([]TrackPoint, 0, len(points))
	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		ts := p.Timestamp.Unix()
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}
		m.nextPoint++
		p.ID = m.nextPoint
		p.ActivityID = a.ID
		p.UserID = a.UserID
		stored = append(stored, p)
	}
	m.points[a.ID] = stored
	return nil
}

func (m *Memory) Counts(ctx context.Context) (Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pts int64
	for _, ps := range m.points {
		pts += int64(len(ps))
	}
	return Counts{
		Users:       int64(len(m.users)),
		Activities:  int64(len(m.activities)),
		TrackPoints: pts,
	}, nil
}

func (m *Memory) ActivityCountsByUser(ctx context.Context) ([]UserActivityCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64, len(m.users))
	for id := range m.users {
		counts[id] = 0
	}
	for _, a := range m.activities {
		counts[a.UserID]++
	}

	rows := make([]UserActivityCount, 0, len(counts))
	for id, n := range counts {
		rows = append(rows, UserActivityCount{UserID: id, Activities: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Activities != rows[j].Activities {
			return rows[i].Activities > rows[j].Activities
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows, nil
}

func (m *Memory) ModeCounts(ctx context.Context) ([]ModeCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, a := range m.activities {
		if a.Mode.Known() {
			counts[a.Mode.Name()]++
		}
	}

	rows := make([]ModeCount, 0, len(counts))
	for mode, n := range counts {
		rows = append(rows, ModeCount{Mode: mode, Activities: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Activities != rows[j].Activities {
			return rows[i].Activities > rows[j].Activities
		}
		return rows[i].Mode < rows[j].Mode
	})
	return rows, nil
}

func (m *Memory) UsersByMode(ctx context.Context, mode string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, a := range m.activities {
		if a.Mode.Known() && a.Mode.Name() == mode {
			seen[a.UserID] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (m *Memory) YearStats(ctx context.Context) ([]YearStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct {
		count int64
		hours float64
	}
	byYear := make(map[int]*agg)
	for _, a := range m.activities {
		year := a.StartTime.UTC().Year()
		st, ok := byYear[year]
		if !ok {
			st = &agg{}
			byYear[year] = st
		}
		st.count++
		st.hours += a.EndTime.Sub(a.StartTime).Hours()
	}

	rows := make([]YearStat, 0, len(byYear))
	for year, st := range byYear {
		rows = append(rows, YearStat{Year: year, Activities: st.count, Hours: st.hours})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return rows, nil
}

func (m *Memory) ActivityTracks(ctx context.Context, userID, mode string, year int) ([][]geo.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tracks [][]geo.Point
	for _, a := range m.activities {
		if a.UserID != userID || !a.Mode.Known() || a.Mode.Name() != mode {
			continue
		}
		if a.StartTime.UTC().Year() != year {
			continue
		}
		pts := m.points[a.ID]
		track := make([]geo.Point, len(pts))
		for i, p := range pts {
			track[i] = geo.Point{Lat: p.Lat, Lon: p.Lon}
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (m *Memory) TopAltitudeGains(ctx context.Context, n int, invalidAltitude int) ([]UserAltitudeGain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gains := make(map[string]float64)
	for _, a := range m.activities {
		pts := m.points[a.ID]
		alts := make([]int, len(pts))
		for i, p := range pts {
			alts[i] = p.AltitudeFeet
		}
		gains[a.UserID] += AltitudeGainFeet(alts, invalidAltitude)
	}

	rows := make([]UserAltitudeGain, 0, len(gains))
	for id, g := range gains {
		rows = append(rows, UserAltitudeGain{UserID: id, GainFeet: g})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].GainFeet != rows[j].GainFeet {
			return rows[i].GainFeet > rows[j].GainFeet
		}
		return rows[i].UserID < rows[j].UserID
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (m *Memory) InvalidActivityCounts(ctx context.Context, gap time.Duration) ([]UserInvalidCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, a := range m.activities {
		pts := m.points[a.ID]
		times := make([]time.Time, len(pts))
		for i, p := range pts {
			times[i] = p.Timestamp
		}
		if HasLongGap(times, gap) {
			counts[a.UserID]++
		}
	}

	rows := make([]UserInvalidCount, 0, len(counts))
	for id, n := range counts {
		rows = append(rows, UserInvalidCount{UserID: id, InvalidActivities: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].InvalidActivities != rows[j].InvalidActivities {
			return rows[i].InvalidActivities > rows[j].InvalidActivities
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows, nil
}

func (m *Memory) UsersInBox(ctx context.Context, box geo.Box) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, pts := range m.points {
		for _, p := range pts {
			if box.Contains(geo.Point{Lat: p.Lat, Lon: p.Lon}) {
				seen[p.UserID] = struct{}{}
				break
			}
		}
	}
	return sortedKeys(seen), nil
}

func (m *Memory) MostUsedModes(ctx context.Context) ([]UserMode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	perUser := make(map[string]map[string]int64)
	for _, a := range m.activities {
		if !a.Mode.Known() {
			continue
		}
		modes, ok := perUser[a.UserID]
		if !ok {
			modes = make(map[string]int64)
			perUser[a.UserID] = modes
		}
		modes[a.Mode.Name()]++
	}

	rows := make([]UserMode, 0, len(perUser))
	for id, modes := range perUser {
		var best string
		var bestCount int64 = -1
		for mode, n := range modes {
			if n > bestCount || (n == bestCount && mode < best) {
				best = mode
				bestCount = n
			}
		}
		rows = append(rows, UserMode{UserID: id, Mode: best})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows, nil
}

func (m *Memory) Users(ctx context.Context, limit int) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	users := make([]User, len(ids))
	for i, id := range ids {
		users[i] = m.users[id]
	}
	return users, nil
}

func (m *Memory) Activities(ctx context.Context, limit int) ([]Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]Activity, len(m.activities))
	copy(rows, m.activities)
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *Memory) TrackPoints(ctx context.Context, limit int) ([]TrackPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []TrackPoint
	for _, pts := range m.points {
		rows = append(rows, pts...)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *Memory) Close() error { return nil }

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
