package timeutil

import "time"

// WIB is Western Indonesia Time, the warehouse floor clock (UTC+7).
var WIB *time.Location

func init() {
	var err error
	WIB, err = time.LoadLocation("Asia/Jakarta")
	if err != nil {
		// tzdata may be missing on minimal images
		WIB = time.FixedZone("WIB", 7*60*60)
	}
}

// Now returns the current time in WIB.
func Now() time.Time {
	return time.Now().In(WIB)
}

// ClockWIB formats t as a 24h wall clock (15.04.05) in WIB, matching the floor's id-ID locale.
func ClockWIB(t time.Time) string {
	return t.In(WIB).Format("15.04.05")
}
