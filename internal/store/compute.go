package store

import "time"

// AltitudeGainFeet sums the positive altitude deltas between consecutive
// values. A pair is skipped entirely when either value equals the
// invalid sentinel, so a strictly descending sequence yields 0 and
// sentinel-touching pairs contribute nothing.
func AltitudeGainFeet(altitudes []int, invalid int) float64 {
	var gain float64
	for i := 1; i < len(altitudes); i++ {
		prev, cur := altitudes[i-1], altitudes[i]
		if prev == invalid || cur == invalid {
			continue
		}
		if cur > prev {
			gain += float64(cur - prev)
		}
	}
	return gain
}

// HasLongGap reports whether any consecutive pair of timestamps is
// separated by at least gap. The timestamps must be in ascending order.
func HasLongGap(timestamps []time.Time, gap time.Duration) bool {
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i].Sub(timestamps[i-1]) >= gap {
			return true
		}
	}
	return false
}
