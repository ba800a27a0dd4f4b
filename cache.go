package main

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// cacheSchemaVersion stamps the store. A bump hard-invalidates every
// record on the next load; there is no migration path.
const cacheSchemaVersion = 1

// TriageCache is the persistent triage store plus its in-memory
// materialization. The map is the working copy during a sync; PersistAll
// rewrites the whole table from it in one transaction.
type TriageCache struct {
	db      *sql.DB
	records map[string]*TriageRecord
}

func OpenCache(path string) (*TriageCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS triage_cache (
		thread_id     TEXT PRIMARY KEY,
		is_job_thread INTEGER,
		filter_source TEXT DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		category      TEXT DEFAULT '',
		is_job        INTEGER DEFAULT 0,
		play          TEXT DEFAULT '',
		draft         TEXT DEFAULT '',
		first_seen    INTEGER NOT NULL,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS cache_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS props (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &TriageCache{db: db, records: make(map[string]*TriageRecord)}, nil
}

func (c *TriageCache) Close() error { return c.db.Close() }

// Load materializes all records. If the persisted schema version is older
// than cacheSchemaVersion the store is cleared first and an empty map is
// returned: schema changes are non-migratable by policy.
func (c *TriageCache) Load() (map[string]*TriageRecord, error) {
	stored := 0
	var raw string
	err := c.db.QueryRow(`SELECT value FROM cache_meta WHERE key = 'version'`).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// Fresh store.
	case err != nil:
		return nil, err
	default:
		stored, _ = strconv.Atoi(raw)
	}

	if stored < cacheSchemaVersion {
		if stored > 0 {
			log.Printf("cache outdated version=%d current=%d, clearing", stored, cacheSchemaVersion)
		}
		if _, err := c.db.Exec(`DELETE FROM triage_cache`); err != nil {
			return nil, err
		}
		if err := c.stampVersion(); err != nil {
			return nil, err
		}
		c.records = make(map[string]*TriageRecord)
		return c.records, nil
	}

	rows, err := c.db.Query(
		`SELECT thread_id, is_job_thread, filter_source, message_count, category, is_job, play, draft, first_seen
		 FROM triage_cache`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.records = make(map[string]*TriageRecord)
	for rows.Next() {
		var rec TriageRecord
		var isJobThread sql.NullInt64
		var isJob int
		var firstSeen int64
		err := rows.Scan(
			&rec.ThreadID, &isJobThread, &rec.FilterSource, &rec.MessageCount,
			&rec.Category, &isJob, &rec.Play, &rec.Draft, &firstSeen,
		)
		if err != nil {
			return nil, err
		}
		if isJobThread.Valid {
			v := isJobThread.Int64 != 0
			rec.IsJobThread = &v
		}
		rec.IsJob = isJob != 0
		rec.FirstSeen = time.UnixMilli(firstSeen)
		c.records[rec.ThreadID] = &rec
	}
	return c.records, rows.Err()
}

func (c *TriageCache) Get(id string) *TriageRecord {
	return c.records[id]
}

// Merge shallow-merges patch fields into the record for id, creating the
// record on first sight (FirstSeen = now).
func (c *TriageCache) Merge(id string, patch TriagePatch) *TriageRecord {
	rec := c.records[id]
	if rec == nil {
		rec = &TriageRecord{ThreadID: id, FirstSeen: time.Now()}
		c.records[id] = rec
	}
	if patch.IsJobThread != nil {
		v := *patch.IsJobThread
		rec.IsJobThread = &v
	}
	if patch.FilterSource != nil {
		rec.FilterSource = *patch.FilterSource
	}
	if patch.MessageCount != nil {
		rec.MessageCount = *patch.MessageCount
	}
	if patch.Category != nil {
		rec.Category = *patch.Category
	}
	if patch.IsJob != nil {
		rec.IsJob = *patch.IsJob
	}
	if patch.Play != nil {
		rec.Play = *patch.Play
	}
	if patch.Draft != nil {
		rec.Draft = *patch.Draft
	}
	return rec
}

// PersistAll rewrites the entire store from the in-memory map in one
// transaction. The cache is fully materialized on every sync; there is no
// incremental append.
func (c *TriageCache) PersistAll() error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM triage_cache`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO triage_cache (thread_id, is_job_thread, filter_source, message_count, category, is_job, play, draft, first_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range c.records {
		var isJobThread interface{}
		if rec.IsJobThread != nil {
			isJobThread = boolToInt(*rec.IsJobThread)
		}
		_, err := stmt.Exec(
			rec.ThreadID, isJobThread, rec.FilterSource, rec.MessageCount,
			rec.Category, boolToInt(rec.IsJob), rec.Play, rec.Draft,
			rec.FirstSeen.UnixMilli(),
		)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO cache_meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(cacheSchemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

// Clear drops every triage record (a user-triggered fresh sync). Stored
// props (keys, profile) are untouched.
func (c *TriageCache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM triage_cache`); err != nil {
		return err
	}
	c.records = make(map[string]*TriageRecord)
	return nil
}

func (c *TriageCache) stampVersion() error {
	_, err := c.db.Exec(
		`INSERT INTO cache_meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(cacheSchemaVersion))
	return err
}

// Props is the key-value store for credentials and saved profile text,
// sharing the cache database file.

func (c *TriageCache) GetProp(key string) (string, error) {
	var v string
	err := c.db.QueryRow(`SELECT value FROM props WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get prop %s: %w", key, err)
	}
	return v, nil
}

func (c *TriageCache) SetProp(key, value string) error {
	_, err := c.db.Exec(
		`INSERT INTO props (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (c *TriageCache) DeleteProp(key string) error {
	_, err := c.db.Exec(`DELETE FROM props WHERE key = ?`, key)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
