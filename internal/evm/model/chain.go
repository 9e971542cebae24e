package model

// Chain labels the ingested network in logs and metrics.
type Chain string

var (
	Scroll   Chain = "scroll"
	Ethereum Chain = "ethereum"
)
