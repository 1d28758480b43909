package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, source_url, title, duration, status, progress, provider_job_id, srt_content, captions_json, error, metadata_json, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id            string
		sourceURL     string
		title         sql.NullString
		duration      sql.NullFloat64
		statusStr     string
		progress      sql.NullInt64
		providerJobID sql.NullString
		srtContent    sql.NullString
		captionsJSON  sql.NullString
		errorMessage  sql.NullString
		metadata      sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceURL,
		&title,
		&duration,
		&statusStr,
		&progress,
		&providerJobID,
		&srtContent,
		&captionsJSON,
		&errorMessage,
		&metadata,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:            id,
		SourceURL:     sourceURL,
		Title:         title.String,
		Duration:      duration.Float64,
		Status:        Status(statusStr),
		Progress:      int(progress.Int64),
		ProviderJobID: providerJobID.String,
		SRTContent:    srtContent.String,
		CaptionsJSON:  captionsJSON.String,
		Error:         errorMessage.String,
		MetadataJSON:  metadata.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	defer rows.Close()
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}

// storedTimeLayout is fixed width so timestamps sort lexically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
