package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		id          string
		path        string
		title       sql.NullString
		artistsJSON sql.NullString
		album       sql.NullString
		modifiedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &path, &title, &artistsJSON, &album, &modifiedRaw); err != nil {
		return nil, err
	}

	track := &Track{
		ID:    id,
		Path:  path,
		Title: title.String,
		Album: album.String,
	}
	if artistsJSON.Valid && strings.TrimSpace(artistsJSON.String) != "" {
		if err := json.Unmarshal([]byte(artistsJSON.String), &track.Artists); err != nil {
			return nil, fmt.Errorf("decode artists for %s: %w", id, err)
		}
	}
	if modified, err := parseTimeString(modifiedRaw.String); err == nil {
		track.ModifiedAt = modified
	}
	return track, nil
}

func encodeArtists(artists []string) (sql.NullString, error) {
	if len(artists) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(artists)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode artists: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func parseTimeString(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
