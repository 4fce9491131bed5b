package meterdb

type MeterDbMergedReading struct {
	Timestamp    int64   `db:"timestamp"`
	ConsumptionW float64 `db:"consumption_w"`
	ProductionW  float64 `db:"production_w"`
	TotalW       float64 `db:"total_w"`
}

type MeterDbLoadRun struct {
	RunID       string `db:"run_id" json:"run_id"`
	StartedAt   int64  `db:"started_at" json:"started_at"`
	FinishedAt  int64  `db:"finished_at" json:"finished_at"`
	Status      string `db:"status" json:"status"`
	Rows        int    `db:"row_count" json:"rows"`
	Message     string `db:"message" json:"message,omitempty"`
	Fingerprint string `db:"fingerprint" json:"fingerprint"`
}
