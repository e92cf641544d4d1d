package clickhouse

// HerdSchema returns the idempotent DDL for the yield history tables.
// yields keeps the latest row per (owner, subject, day) after merges; readers use FINAL.
func HerdSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS yields (
            owner_id    LowCardinality(String),
            subject_id  String,
            day         Date,
            morning     Float64,
            afternoon   Float64,
            total       Float64,
            ingested_at DateTime64(3, 'UTC')
        ) ENGINE = ReplacingMergeTree(ingested_at)
        PARTITION BY toYYYYMM(day)
        ORDER BY (owner_id, subject_id, day)`,
		`CREATE TABLE IF NOT EXISTS subjects (
            owner_id   LowCardinality(String),
            id         String,
            label      String,
            updated_at DateTime64(3, 'UTC')
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (owner_id, id)`,
	}
}
