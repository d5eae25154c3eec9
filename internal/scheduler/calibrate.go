package scheduler

import "time"

// CalibrateUpdateInterval stretches a desired update interval to absorb
// the bus time spent on command slots. Every command interval inside the
// update interval costs roughly one command transaction on the shared
// serial link, so the effective interval is the smallest fixed point of
//
//	u = base + commandCost * ceil(u / commandInterval)
//
// For base 206ms, cost 35ms and a 100ms command cadence that is 346ms.
func CalibrateUpdateInterval(base, commandCost, commandInterval time.Duration) time.Duration {
	if commandInterval <= 0 || commandCost <= 0 {
		return base
	}
	// A slot costing more than its own cadence cannot be absorbed; the
	// iteration would never settle.
	if commandCost >= commandInterval {
		return base
	}
	u := base
	for i := 0; i < 16; i++ {
		slots := (u + commandInterval - 1) / commandInterval
		next := base + commandCost*slots
		if next == u {
			return u
		}
		u = next
	}
	return u
}
