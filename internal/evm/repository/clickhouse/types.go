package clickhouse

import "time"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
//go:generate mockgen -destination=driver_mocks_test.go -package=$GOPACKAGE github.com/ClickHouse/clickhouse-go/v2/lib/driver Conn,Rows,Batch

type (
	// Metrics records repository operation outcomes.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)
