package hikestore_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/HendryAvila/hikelog/internal/hikestore"
)

// seedLegacyDB writes a database in an older layout and returns its config.
func seedLegacyDB(t *testing.T, stmts ...string) hikestore.Config {
	t.Helper()
	cfg := hikestore.Config{DataDir: t.TempDir(), DBFile: "legacy.db"}
	db, err := sqlx.Open("sqlite", filepath.Join(cfg.DataDir, cfg.DBFile))
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer db.Close()
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("seed %q: %v", q, err)
		}
	}
	return cfg
}

func openStore(t *testing.T, cfg hikestore.Config) *hikestore.Store {
	t.Helper()
	s, err := hikestore.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// cascadingHikeKey reports whether observations.hike_id references hikes
// with ON DELETE CASCADE.
func cascadingHikeKey(t *testing.T, s *hikestore.Store) bool {
	t.Helper()
	var n int
	err := s.DB().Get(&n, `SELECT COUNT(*) FROM pragma_foreign_key_list('observations')
		WHERE "table" = 'hikes' AND "from" = 'hike_id' AND on_delete = 'CASCADE'`)
	if err != nil {
		t.Fatalf("foreign_key_list: %v", err)
	}
	return n > 0
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// A version 3 install: aliased columns, no weather or group size, and an
// observations table keyed by a "hike" column with a NOT NULL timestamp.
var legacyV3 = []string{
	`CREATE TABLE hikes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		date TEXT NOT NULL,
		parking_available INTEGER DEFAULT 0,
		distance REAL,
		level TEXT,
		info TEXT
	)`,
	`CREATE TABLE observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hike INTEGER NOT NULL REFERENCES hikes(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	`INSERT INTO hikes (name, location, date, parking_available, distance, level, info)
	 VALUES ('Old Ridge', 'Valley', '2019-08-01', 1, 7.5, 'Medium', 'legacy notes')`,
	`INSERT INTO observations (hike, content, timestamp) VALUES (1, 'marmot', '11:00')`,
	`PRAGMA user_version = 3`,
}

func TestMigrate_FreshDatabase(t *testing.T) {
	s := newTestStore(t)

	st, err := s.SchemaStatus()
	if err != nil {
		t.Fatalf("SchemaStatus: %v", err)
	}
	if st.Version != hikestore.SchemaVersion || st.TargetVersion != hikestore.SchemaVersion {
		t.Errorf("version = %d/%d, want %d", st.Version, st.TargetVersion, hikestore.SchemaVersion)
	}
	for _, col := range []string{"parking", "length", "difficulty", "weather", "group_size"} {
		if !contains(st.Columns["hikes"], col) {
			t.Errorf("hikes missing column %q: %v", col, st.Columns["hikes"])
		}
	}
	if len(st.LegacyColumns) != 0 {
		t.Errorf("fresh database has legacy columns: %v", st.LegacyColumns)
	}
}

func TestMigrate_LegacyV3PreservesData(t *testing.T) {
	s := openStore(t, seedLegacyDB(t, legacyV3...))

	h, ok := s.GetHike(1)
	if !ok {
		t.Fatal("legacy hike lost")
	}
	want := hikestore.Hike{
		ID: 1, Name: "Old Ridge", Location: "Valley", Date: "2019-08-01",
		Parking: true, Length: 7.5, Difficulty: "Medium", Description: "legacy notes",
	}
	if h != want {
		t.Errorf("migrated hike = %+v\nwant %+v", h, want)
	}

	obs := s.GetObservationsByHike(1)
	if len(obs) != 1 {
		t.Fatalf("migrated observations = %d, want 1", len(obs))
	}
	if obs[0].Text != "marmot" || obs[0].Time != "11:00" || obs[0].Comments != "" {
		t.Errorf("migrated observation = %+v", obs[0])
	}

	st, err := s.SchemaStatus()
	if err != nil {
		t.Fatalf("SchemaStatus: %v", err)
	}
	if st.Version != hikestore.SchemaVersion {
		t.Errorf("Version = %d, want %d", st.Version, hikestore.SchemaVersion)
	}
	for _, gone := range []string{"parking_available", "distance", "level", "info"} {
		if contains(st.Columns["hikes"], gone) {
			t.Errorf("alias %q not collapsed: %v", gone, st.Columns["hikes"])
		}
	}
	if contains(st.Columns["observations"], "timestamp") {
		t.Errorf("timestamp not collapsed: %v", st.Columns["observations"])
	}
	if len(st.LegacyColumns) != 0 {
		t.Errorf("LegacyColumns = %v, want none", st.LegacyColumns)
	}
	if !cascadingHikeKey(t, s) {
		t.Error("observations.hike_id lost its foreign key")
	}
	for _, r := range st.Steps {
		if r.Status == hikestore.StepFailed {
			t.Errorf("step failed: %+v", r)
		}
	}
}

func TestMigrate_LegacyV3WritesAfterUpgrade(t *testing.T) {
	s := openStore(t, seedLegacyDB(t, legacyV3...))

	id := s.AddObservation(hikestore.Observation{HikeID: 1, Text: "eagle", Time: "12:00", Comments: "soaring"})
	if id <= 0 {
		t.Fatalf("AddObservation on migrated store = %d", id)
	}
	if got := s.AddObservation(hikestore.Observation{HikeID: 999, Text: "orphan", Time: "1"}); got != -1 {
		t.Errorf("AddObservation for missing hike = %d, want -1", got)
	}

	obs := s.GetObservationsByHike(1)
	if len(obs) != 2 || obs[0].Text != "eagle" {
		t.Errorf("observations = %+v", obs)
	}

	var before int
	if err := s.DB().Get(&before, `SELECT COUNT(*) FROM observations`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DB().Exec(`DELETE FROM hikes WHERE id = 1`); err != nil {
		t.Fatalf("raw delete: %v", err)
	}
	var after int
	if err := s.DB().Get(&after, `SELECT COUNT(*) FROM observations`); err != nil {
		t.Fatal(err)
	}
	if before != 2 || after != 0 {
		t.Errorf("observations %d -> %d after deleting the hike, want 2 -> 0", before, after)
	}
}

// The layout the previous app left behind: its upgrade added the current
// columns with defaults next to the legacy ones and stamped version 5
// without copying anything across.
var originalV5 = []string{
	`CREATE TABLE hikes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		date TEXT NOT NULL,
		parking_available INTEGER DEFAULT 0,
		distance REAL,
		level TEXT
	)`,
	`CREATE TABLE observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hike INTEGER REFERENCES hikes(id) ON DELETE CASCADE,
		content TEXT,
		timestamp TEXT
	)`,
	`INSERT INTO hikes (name, location, date, parking_available, distance, level)
	 VALUES ('Old Ridge', 'Valley', '2019-08-01', 1, 7.5, 'Hard')`,
	`INSERT INTO observations (hike, content, timestamp) VALUES (1, 'ibex', '09:00')`,
	`ALTER TABLE hikes ADD COLUMN parking INTEGER DEFAULT 0`,
	`ALTER TABLE hikes ADD COLUMN difficulty TEXT DEFAULT 'Easy'`,
	`ALTER TABLE hikes ADD COLUMN weather TEXT DEFAULT NULL`,
	`ALTER TABLE hikes ADD COLUMN group_size INTEGER DEFAULT 0`,
	`ALTER TABLE hikes ADD COLUMN description TEXT DEFAULT NULL`,
	`ALTER TABLE hikes ADD COLUMN length REAL DEFAULT 0`,
	`ALTER TABLE observations ADD COLUMN hike_id INTEGER DEFAULT 0`,
	`ALTER TABLE observations ADD COLUMN observation_text TEXT DEFAULT ''`,
	`ALTER TABLE observations ADD COLUMN time TEXT DEFAULT ''`,
	`ALTER TABLE observations ADD COLUMN comments TEXT DEFAULT NULL`,
	`UPDATE observations SET time = timestamp WHERE (time IS NULL OR time = '') AND (timestamp IS NOT NULL AND timestamp <> '')`,
	`PRAGMA user_version = 5`,
}

func TestMigrate_OriginalV5DefaultsDoNotHideLegacyValues(t *testing.T) {
	s := openStore(t, seedLegacyDB(t, originalV5...))

	h, ok := s.GetHike(1)
	if !ok {
		t.Fatal("hike lost")
	}
	if !h.Parking || h.Length != 7.5 || h.Difficulty != "Hard" {
		t.Errorf("migrated hike = %+v, want parking, 7.5 km, Hard", h)
	}

	obs := s.GetObservationsByHike(1)
	if len(obs) != 1 || obs[0].Text != "ibex" || obs[0].Time != "09:00" {
		t.Errorf("observations of hike 1 = %+v", obs)
	}

	st, _ := s.SchemaStatus()
	if st.Version != hikestore.SchemaVersion {
		t.Errorf("Version = %d, want %d", st.Version, hikestore.SchemaVersion)
	}
	if len(st.LegacyColumns) != 0 {
		t.Errorf("LegacyColumns = %v, want all folded", st.LegacyColumns)
	}
	if !cascadingHikeKey(t, s) {
		t.Error("observations.hike_id has no cascading foreign key")
	}
}

func TestMigrate_FirstAliasWins(t *testing.T) {
	s := openStore(t, seedLegacyDB(t,
		`CREATE TABLE hikes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT NOT NULL,
			date TEXT NOT NULL,
			parking_available INTEGER,
			has_parking INTEGER
		)`,
		`INSERT INTO hikes (name, location, date, parking_available, has_parking) VALUES ('Lake', 'North', '2021-05-05', 1, 0)`,
	))

	h, _ := s.GetHike(1)
	if !h.Parking {
		t.Error("parking_available = 1 lost to has_parking = 0")
	}
	st, _ := s.SchemaStatus()
	if !contains(st.LegacyColumns["hikes"], "has_parking") {
		t.Errorf("LegacyColumns = %v, want the disagreeing has_parking kept", st.LegacyColumns)
	}
}

func TestMigrate_DivergentAliasKeptAndMirrored(t *testing.T) {
	s := openStore(t, seedLegacyDB(t,
		`CREATE TABLE hikes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT NOT NULL,
			date TEXT NOT NULL,
			distance REAL,
			length REAL DEFAULT 0
		)`,
		`INSERT INTO hikes (name, location, date, distance, length) VALUES ('Edited', 'East', '2022-02-02', 7.5, 9)`,
		`PRAGMA user_version = 5`,
	))

	h, _ := s.GetHike(1)
	if h.Length != 9 {
		t.Errorf("Length = %v, want the current value 9", h.Length)
	}
	st, _ := s.SchemaStatus()
	if !contains(st.LegacyColumns["hikes"], "distance") {
		t.Fatalf("LegacyColumns = %v, want distance kept", st.LegacyColumns)
	}

	h.Length = 10
	if n := s.UpdateHike(h); n != 1 {
		t.Fatalf("UpdateHike = %d", n)
	}
	var distance float64
	if err := s.DB().Get(&distance, `SELECT distance FROM hikes WHERE id = 1`); err != nil {
		t.Fatal(err)
	}
	if distance != 10 {
		t.Errorf("distance = %v, want mirrored 10", distance)
	}
}

func TestMigrate_ObservationsOnlyLegacyFile(t *testing.T) {
	s := openStore(t, seedLegacyDB(t,
		`CREATE TABLE observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hike INTEGER NOT NULL,
			content TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`INSERT INTO observations (hike, content, timestamp) VALUES (1, 'owl', '22:00')`,
	))

	st, err := s.SchemaStatus()
	if err != nil {
		t.Fatalf("SchemaStatus: %v", err)
	}
	for _, col := range []string{"hike_id", "observation_text", "time", "comments"} {
		if !contains(st.Columns["observations"], col) {
			t.Errorf("observations missing %q: %v", col, st.Columns["observations"])
		}
	}
	if contains(st.Columns["observations"], "content") {
		t.Errorf("content not collapsed: %v", st.Columns["observations"])
	}

	// The row outlives its missing hike.
	obs := s.GetObservationsByHike(1)
	if len(obs) != 1 || obs[0].Text != "owl" || obs[0].Time != "22:00" {
		t.Errorf("observations = %+v", obs)
	}
	if !cascadingHikeKey(t, s) {
		t.Error("rebuilt observations has no foreign key")
	}
}

func TestMigrate_UnversionedLegacyFillsOnlyEmptyCanonical(t *testing.T) {
	cfg := seedLegacyDB(t,
		`CREATE TABLE hikes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT NOT NULL,
			date TEXT NOT NULL,
			parking INTEGER,
			has_parking INTEGER,
			"group" INTEGER,
			weather_info TEXT
		)`,
		`CREATE TABLE observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hike_id INTEGER NOT NULL,
			observation_text TEXT NOT NULL,
			obs_time TEXT,
			notes TEXT
		)`,
		`INSERT INTO hikes (name, location, date, parking, has_parking, "group", weather_info)
		 VALUES ('Kept', 'A', '2020-01-01', 0, 1, 3, 'windy')`,
		`INSERT INTO hikes (name, location, date, parking, has_parking, "group", weather_info)
		 VALUES ('Filled', 'B', '2020-01-02', NULL, 1, 5, 'calm')`,
		`INSERT INTO observations (hike_id, observation_text, obs_time, notes) VALUES (2, 'frog', '06:15', 'pond')`,
	)
	s := openStore(t, cfg)

	kept, _ := s.GetHike(1)
	if kept.Parking {
		t.Error("existing parking value overwritten by alias")
	}
	if kept.GroupSize != 3 || kept.Weather != "windy" {
		t.Errorf("hike 1 = %+v", kept)
	}

	filled, _ := s.GetHike(2)
	if !filled.Parking || filled.GroupSize != 5 || filled.Weather != "calm" {
		t.Errorf("hike 2 = %+v", filled)
	}

	obs := s.GetObservationsByHike(2)
	if len(obs) != 1 || obs[0].Time != "06:15" || obs[0].Comments != "pond" {
		t.Errorf("observations = %+v", obs)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openStore(t, seedLegacyDB(t, legacyV3...))

	before, _ := s.SchemaStatus()
	if err := s.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	after, _ := s.SchemaStatus()

	if len(after.Steps) != len(before.Steps) {
		t.Errorf("re-migrate ran %d more steps", len(after.Steps)-len(before.Steps))
	}
	if after.Version != before.Version {
		t.Errorf("version changed %d -> %d", before.Version, after.Version)
	}
	if _, ok := s.GetHike(1); !ok {
		t.Error("data lost on re-migrate")
	}
}

func TestMigrate_StepFailureDoesNotAbort(t *testing.T) {
	s := newTestStore(t)
	for _, q := range []string{
		`ALTER TABLE observations DROP COLUMN comments`,
		`PRAGMA user_version = 4`,
	} {
		if _, err := s.DB().Exec(q); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}

	s.FailExecContaining("ADD COLUMN", errors.New("read-only"))
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate should tolerate step failures, got %v", err)
	}
	s.ResetHooks()

	st, _ := s.SchemaStatus()
	if st.Version != hikestore.SchemaVersion {
		t.Errorf("Version = %d, want %d", st.Version, hikestore.SchemaVersion)
	}
	var failed, applied int
	for _, r := range st.Steps {
		switch r.Status {
		case hikestore.StepFailed:
			failed++
		case hikestore.StepApplied:
			applied++
		}
	}
	if failed != 1 {
		t.Errorf("failed steps = %d, want 1: %+v", failed, st.Steps)
	}
	if applied == 0 {
		t.Error("later steps did not run after the failure")
	}

	h := mustAddHike(t, s, hikestore.NewHike("H", "L", "2024-01-01"))
	o := mustAddObservation(t, s, hikestore.Observation{HikeID: h.ID, Text: "x", Time: "1", Comments: "lost"})
	if got, _ := s.GetObservation(o.ID); got.Comments != "" {
		t.Errorf("Comments = %q, want empty", got.Comments)
	}
}

func TestMigrate_CreateSchemaFailure(t *testing.T) {
	s := newTestStore(t)
	s.FailExecContaining("CREATE TABLE", errors.New("no space"))
	if err := s.Migrate(); err == nil {
		t.Error("expected error when the schema cannot be created")
	}
}
