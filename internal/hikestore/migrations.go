package hikestore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ansel1/merry"
)

// SchemaVersion is the schema version this build migrates to.
const SchemaVersion = 6

// createHikes is the current hikes table.
const createHikes = `
	CREATE TABLE IF NOT EXISTS hikes (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		location    TEXT    NOT NULL,
		date        TEXT    NOT NULL,
		parking     INTEGER NOT NULL DEFAULT 0,
		length      REAL    NOT NULL DEFAULT 0,
		difficulty  TEXT    NOT NULL DEFAULT 'Easy',
		description TEXT,
		weather     TEXT,
		group_size  INTEGER DEFAULT 0
	);
`

// observationsDDL is the current observations table under the given name,
// with extra column declarations placed before the foreign key.
func observationsDDL(table string, extra ...string) string {
	cols := []string{
		"id               INTEGER PRIMARY KEY AUTOINCREMENT",
		"hike_id          INTEGER NOT NULL",
		"observation_text TEXT    NOT NULL",
		"time             TEXT    NOT NULL DEFAULT ''",
		"comments         TEXT",
	}
	cols = append(cols, extra...)
	cols = append(cols, "FOREIGN KEY (hike_id) REFERENCES hikes(id) ON DELETE CASCADE")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t\t%s\n\t);\n", quoteIdent(table), strings.Join(cols, ",\n\t\t"))
}

// createSchema is the full current schema, used for new databases and to
// create whichever table is missing from an older one.
var createSchema = createHikes + observationsDDL(tableObservations)

// Indexes are created separately: on a legacy table an indexed column may
// still be missing, and that must not block the rest of the schema.
var indexes = []struct{ name, table, column string }{
	{"idx_hikes_date", tableHikes, colDate},
	{"idx_hikes_name", tableHikes, colName},
	{"idx_obs_hike", tableObservations, colHikeRef},
}

// StepResult records the outcome of one migration step in this process.
type StepResult struct {
	Version int    `json:"version"`
	Step    string `json:"step"`
	Status  string `json:"status"` // applied, skipped, failed
	Error   string `json:"error,omitempty"`
}

// Step statuses.
const (
	StepApplied = "applied"
	StepSkipped = "skipped"
	StepFailed  = "failed"
)

type migrationStep struct {
	name  string
	apply func(s *Store, run *migrationRun) (applied bool, err error)
}

type migration struct {
	version int
	steps   []migrationStep
}

// migrationRun carries state shared by the steps of one Migrate call.
type migrationRun struct {
	added map[string]bool // "table.column" added during this run
}

// migrations lists every upgrade in order. Version 5 brings any older
// layout up to the full column set; version 6 folds legacy alias columns
// into their canonical column and restores the observations foreign key.
var migrations = []migration{
	{
		version: 5,
		steps: []migrationStep{
			addColumn(tableHikes, colParking, "INTEGER DEFAULT 0"),
			addColumn(tableHikes, colDifficulty, "TEXT DEFAULT 'Easy'"),
			addColumn(tableHikes, colWeather, "TEXT DEFAULT NULL"),
			addColumn(tableHikes, colGroupSize, "INTEGER DEFAULT 0"),
			addColumn(tableHikes, colDescription, "TEXT DEFAULT NULL"),
			addColumn(tableHikes, colLength, "REAL DEFAULT 0"),
			addColumn(tableObservations, colHikeRef, "INTEGER DEFAULT 0"),
			addColumn(tableObservations, colObsText, "TEXT DEFAULT ''"),
			addColumn(tableObservations, colObsTime, "TEXT DEFAULT ''"),
			addColumn(tableObservations, colComments, "TEXT DEFAULT NULL"),
		},
	},
	{
		version: 6,
		steps: []migrationStep{
			collapseAlias(tableHikes, colParking),
			collapseAlias(tableHikes, colLength),
			collapseAlias(tableHikes, colDifficulty),
			collapseAlias(tableHikes, colDescription),
			collapseAlias(tableHikes, colWeather),
			collapseAlias(tableHikes, colGroupSize),
			collapseAlias(tableObservations, colHikeRef),
			collapseAlias(tableObservations, colObsText),
			collapseAlias(tableObservations, colObsTime),
			collapseAlias(tableObservations, colComments),
			rebuildObservations(),
			createIndexes(),
		},
	},
}

// Migrate brings the database to SchemaVersion and reloads the cached
// column sets. Individual step failures are logged and recorded, not
// returned; only failing to create or version the schema is an error.
// Running it on an up-to-date database is a no-op.
func (s *Store) Migrate() error {
	existed := false
	for _, table := range []string{tableHikes, tableObservations} {
		ok, err := s.tableExists(table)
		if err != nil {
			return err
		}
		existed = existed || ok
	}

	if _, err := s.execHook(s.db, createSchema); err != nil {
		return merry.Prepend(err, "create schema")
	}

	version, err := s.userVersion()
	if err != nil {
		return err
	}

	if !existed {
		s.runStep(SchemaVersion, createIndexes(), &migrationRun{})
		s.log.Info("created schema", "version", SchemaVersion, "path", s.cfg.Path())
		if err := s.setUserVersion(SchemaVersion); err != nil {
			return err
		}
		s.loadSchema()
		return nil
	}

	run := &migrationRun{added: map[string]bool{}}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		s.log.Info("migrating", "from", version, "to", m.version)
		for _, step := range m.steps {
			s.runStep(m.version, step, run)
		}
		if err := s.setUserVersion(m.version); err != nil {
			return err
		}
		version = m.version
	}

	s.loadSchema()
	return nil
}

func (s *Store) runStep(version int, step migrationStep, run *migrationRun) {
	res := StepResult{Version: version, Step: step.name, Status: StepSkipped}
	applied, err := step.apply(s, run)
	switch {
	case err != nil:
		res.Status = StepFailed
		res.Error = err.Error()
		s.fail("migrate", err, "version", version, "step", step.name)
	case applied:
		res.Status = StepApplied
		s.log.Info("migration step applied", "version", version, "step", step.name)
	default:
		s.log.Debug("migration step skipped", "version", version, "step", step.name)
	}
	s.steps = append(s.steps, res)
}

func (s *Store) tableExists(table string) (bool, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
	if err != nil {
		return false, merry.Prependf(err, "look up table %s", table)
	}
	return n > 0, nil
}

func (s *Store) userVersion() (int, error) {
	var v int
	if err := s.db.Get(&v, "PRAGMA user_version"); err != nil {
		return 0, merry.Prepend(err, "read user_version")
	}
	return v, nil
}

func (s *Store) setUserVersion(v int) error {
	// PRAGMA does not take bound parameters.
	if _, err := s.execHook(s.db, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return merry.Prependf(err, "set user_version %d", v)
	}
	return nil
}

// addColumn adds column to table with decl unless it already exists.
func addColumn(table, col, decl string) migrationStep {
	return migrationStep{
		name: fmt.Sprintf("add column %s.%s", table, col),
		apply: func(s *Store, run *migrationRun) (bool, error) {
			info, err := s.tableInfo(s.db, table)
			if err != nil {
				return false, err
			}
			if info.has(col) {
				return false, nil
			}
			q := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(table), quoteIdent(col), decl)
			if _, err := s.execHook(s.db, q); err != nil {
				return false, merry.Prependf(err, "add column %s.%s", table, col)
			}
			if run.added != nil {
				run.added[table+"."+col] = true
			}
			return true, nil
		},
	}
}

// collapseAlias folds the legacy aliases of canonical into canonical.
//
// Rows where canonical is NULL, empty or still holds its declared default
// take the first non-empty alias, in alias order; a canonical column added
// during this run takes it for every row. An alias is then dropped only if
// every non-empty value it holds equals canonical. Otherwise, or if the drop
// is refused, it stays as a residual column back-filled from canonical and
// later writes mirror into it.
func collapseAlias(table, canonical string) migrationStep {
	return migrationStep{
		name: fmt.Sprintf("collapse aliases of %s.%s", table, canonical),
		apply: func(s *Store, run *migrationRun) (bool, error) {
			info, err := s.tableInfo(s.db, table)
			if err != nil {
				return false, err
			}
			aliases := info.residualAliases(table, canonical)
			if len(aliases) == 0 {
				return false, nil
			}
			if !info.has(canonical) {
				return false, merry.Errorf("canonical column %s.%s missing; keeping %v", table, canonical, aliases)
			}

			t, c := quoteIdent(table), quoteIdent(canonical)
			unset := fmt.Sprintf("(%s IS NULL OR %s = ''", c, c)
			if def := info[strings.ToLower(canonical)].Default; def != nil {
				unset += fmt.Sprintf(" OR %s = (%s)", c, *def)
			}
			unset += ")"
			if run.added[table+"."+canonical] {
				unset = "1=1"
			}

			picks := make([]string, len(aliases))
			for i, alias := range aliases {
				picks[i] = fmt.Sprintf("NULLIF(%s, '')", quoteIdent(alias))
			}
			src := picks[0]
			if len(picks) > 1 {
				src = "COALESCE(" + strings.Join(picks, ", ") + ")"
			}
			fill := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s AND %s IS NOT NULL", t, c, src, unset, src)
			if _, err := s.execHook(s.db, fill); err != nil {
				return false, merry.Prependf(err, "backfill %s.%s from %v", table, canonical, aliases)
			}

			for _, alias := range aliases {
				a := quoteIdent(alias)
				var diverged int
				q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s <> '' AND (%s IS NULL OR %s <> %s)", t, a, a, c, c, a)
				if err := s.db.Get(&diverged, q); err != nil {
					return false, merry.Prependf(err, "compare %s.%s with %s", table, alias, canonical)
				}
				if diverged > 0 {
					s.log.Info("keeping legacy column", "table", table, "column", alias, "rows_differing", diverged)
				} else {
					_, err := s.execHook(s.db, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", t, a))
					if err == nil {
						continue
					}
					s.log.Info("keeping legacy column", "table", table, "column", alias, "err", err)
				}
				back := fmt.Sprintf("UPDATE %s SET %s = %s WHERE (%s IS NULL OR %s = '') AND %s IS NOT NULL AND %s <> ''", t, a, c, a, a, c, c)
				if _, err := s.execHook(s.db, back); err != nil {
					return false, merry.Prependf(err, "backfill %s.%s from %s", table, alias, canonical)
				}
			}
			return true, nil
		},
	}
}

// notNullCopy gives the value copied into the rebuilt observations table
// for its NOT NULL columns when a legacy row holds NULL.
var notNullCopy = map[string]string{
	colHikeRef: "0",
	colObsText: "''",
	colObsTime: "''",
}

// rebuildObservations recreates observations with the hike_id foreign key
// when the live table lacks it. Every row is kept, including rows whose
// hike is gone, and columns outside the current schema are carried over.
func rebuildObservations() migrationStep {
	return migrationStep{
		name: "rebuild observations with hike_id foreign key",
		apply: func(s *Store, run *migrationRun) (bool, error) {
			ok, err := s.hasHikeForeignKey()
			if err != nil || ok {
				return false, err
			}
			info, err := s.tableInfo(s.db, tableObservations)
			if err != nil {
				return false, err
			}
			if !info.has(colHikeRef) {
				return false, merry.Errorf("observations.%s missing; foreign key not added", colHikeRef)
			}

			current := map[string]bool{colID: true, colHikeRef: true, colObsText: true, colObsTime: true, colComments: true}
			live := make([]column, 0, len(info))
			for _, c := range info {
				live = append(live, c)
			}
			sort.Slice(live, func(i, j int) bool { return live[i].CID < live[j].CID })

			var extra, cols, exprs []string
			for _, c := range live {
				name := strings.ToLower(c.Name)
				if !current[name] {
					extra = append(extra, strings.TrimSpace(quoteIdent(c.Name)+" "+c.Type))
				}
				expr := quoteIdent(c.Name)
				if zero, ok := notNullCopy[name]; ok {
					expr = fmt.Sprintf("COALESCE(%s, %s)", expr, zero)
				}
				cols = append(cols, quoteIdent(c.Name))
				exprs = append(exprs, expr)
			}

			const tmp = "observations_rebuild"
			// foreign_keys cannot change inside a transaction, and legacy rows
			// may reference hikes that no longer exist.
			if _, err := s.execHook(s.db, "PRAGMA foreign_keys = OFF"); err != nil {
				return false, merry.Prepend(err, "disable foreign keys")
			}
			defer func() {
				if _, err := s.execHook(s.db, "PRAGMA foreign_keys = ON"); err != nil {
					s.fail("migrate", merry.Prepend(err, "re-enable foreign keys"))
				}
			}()

			tx, err := s.beginTxHook()
			if err != nil {
				return false, merry.Prepend(err, "rebuild observations: begin tx")
			}
			defer func() { _ = tx.Rollback() }()

			for _, q := range []string{
				"DROP TABLE IF EXISTS " + quoteIdent(tmp),
				observationsDDL(tmp, extra...),
				fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
					quoteIdent(tmp), strings.Join(cols, ", "), strings.Join(exprs, ", "), quoteIdent(tableObservations)),
				"DROP TABLE " + quoteIdent(tableObservations),
				fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(tmp), quoteIdent(tableObservations)),
			} {
				if _, err := s.execHook(tx, q); err != nil {
					return false, merry.Prepend(err, "rebuild observations")
				}
			}
			if err := tx.Commit(); err != nil {
				return false, merry.Prepend(err, "rebuild observations: commit")
			}

			var orphans int
			if err := s.db.Get(&orphans, `SELECT COUNT(*) FROM observations WHERE hike_id NOT IN (SELECT id FROM hikes)`); err == nil && orphans > 0 {
				s.log.Info("observations kept without a hike", "rows", orphans)
			}
			return true, nil
		},
	}
}

// hasHikeForeignKey reports whether observations.hike_id references hikes
// with a cascading delete.
func (s *Store) hasHikeForeignKey() (bool, error) {
	rows, err := s.queryHook(s.db, "PRAGMA foreign_key_list("+quoteIdent(tableObservations)+")")
	if err != nil {
		return false, merry.Prepend(err, "foreign_key_list observations")
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return false, merry.Prepend(err, "scan foreign_key_list observations")
	}
	for _, r := range recs {
		if strings.EqualFold(r.asString("", "table", ""), tableHikes) &&
			strings.EqualFold(r.asString("", "from", ""), colHikeRef) &&
			strings.EqualFold(r.asString("", "on_delete", ""), "CASCADE") {
			return true, nil
		}
	}
	return false, nil
}

func createIndexes() migrationStep {
	return migrationStep{
		name: "create indexes",
		apply: func(s *Store, run *migrationRun) (bool, error) {
			var firstErr error
			for _, idx := range indexes {
				q := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.name, quoteIdent(idx.table), quoteIdent(idx.column))
				if _, err := s.execHook(s.db, q); err != nil && firstErr == nil {
					firstErr = merry.Prependf(err, "create index %s", idx.name)
				}
			}
			return firstErr == nil, firstErr
		},
	}
}

// SchemaStatus describes the live schema and this process's migration log.
type SchemaStatus struct {
	Path          string              `json:"path"`
	Version       int                 `json:"version"`
	TargetVersion int                 `json:"target_version"`
	Columns       map[string][]string `json:"columns"`
	LegacyColumns map[string][]string `json:"legacy_columns,omitempty"`
	Steps         []StepResult        `json:"steps,omitempty"`
}

// SchemaStatus reports the schema version, live columns, legacy alias
// columns that survived migration, and the steps run by this process.
func (s *Store) SchemaStatus() (SchemaStatus, error) {
	version, err := s.userVersion()
	if err != nil {
		return SchemaStatus{}, err
	}
	st := SchemaStatus{
		Path:          s.cfg.Path(),
		Version:       version,
		TargetVersion: SchemaVersion,
		Columns:       map[string][]string{},
		LegacyColumns: map[string][]string{},
		Steps:         append([]StepResult(nil), s.steps...),
	}
	for table, info := range s.schema {
		st.Columns[table] = info.names()
		for canonical := range legacyAliases[table] {
			st.LegacyColumns[table] = append(st.LegacyColumns[table], info.residualAliases(table, canonical)...)
		}
		if len(st.LegacyColumns[table]) == 0 {
			delete(st.LegacyColumns, table)
		}
	}
	return st, nil
}
