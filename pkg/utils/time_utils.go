package utils

import "time"

// Unix seconds everywhere the DB is involved.
func NowUnixSeconds() int64 { return time.Now().Unix() }

// NextDailyReset returns the reset timestamp one day ahead of now. The daily
// window always advances from "now", never from the stale reset time, so a
// user who was idle for a week gets exactly one reset.
func NextDailyReset(now time.Time) int64 {
	return now.Add(24 * time.Hour).Unix()
}

// DaysFromNow returns a unix timestamp n days in the future.
func DaysFromNow(n int) int64 {
	return time.Now().AddDate(0, 0, n).Unix()
}
