package ingester

import "time"

const (
	tipPollInterval  = 2 * time.Second
	faultInterval    = 2 * time.Second
	faultMultiplier  = 2
	writeTimeout     = 30 * time.Second
	progressLogEvery = 1000
)
