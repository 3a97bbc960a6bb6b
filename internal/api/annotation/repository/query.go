package annotationRepository

const (
	// the WHERE clause keeps a newer row when an older run finishes late; a
	// row without processed_at is always replaced
	queryUpsertMetadata = `
		INSERT INTO image_metadata (
			image_key,
			processed_key,
			labels,
			processed_at
		) VALUES (
			:image_key,
			:processed_key,
			:labels,
			:processed_at
		)
		ON CONFLICT (image_key) DO UPDATE SET
			processed_key = EXCLUDED.processed_key,
			labels = EXCLUDED.labels,
			processed_at = EXCLUDED.processed_at
		WHERE image_metadata.processed_at IS NULL
			OR image_metadata.processed_at <= EXCLUDED.processed_at
	`
)
