package hotcache

import "time"

// Scores are unix-millisecond timestamps scaled by 1000 with the low three
// digits taken from a per-key monotonic sequence. The result stays below
// 2^53, so the float64 ZSET score is exact and two appends in the same
// millisecond can never collide on an identical score+member pair.
func score(t time.Time, seq int64) float64 {
	return float64(t.UnixMilli()*1000 + seq%1000)
}

func floorScore(t time.Time) float64 {
	return float64(t.UnixMilli() * 1000)
}

func ceilScore(t time.Time) float64 {
	return float64(t.UnixMilli()*1000 + 999)
}
