package hikestore

import (
	"sort"
	"strings"

	"github.com/ansel1/merry"
)

// Table and column names of the current schema.
const (
	tableHikes        = "hikes"
	tableObservations = "observations"

	colID          = "id"
	colName        = "name"
	colLocation    = "location"
	colDate        = "date"
	colParking     = "parking"
	colLength      = "length"
	colDifficulty  = "difficulty"
	colDescription = "description"
	colWeather     = "weather"
	colGroupSize   = "group_size"

	colHikeRef  = "hike_id"
	colObsText  = "observation_text"
	colObsTime  = "time"
	colComments = "comments"
)

// legacyAliases maps a canonical column to the names older installs used for it.
var legacyAliases = map[string]map[string][]string{
	tableHikes: {
		colParking:     {"parking_available", "has_parking"},
		colLength:      {"distance"},
		colDifficulty:  {"level"},
		colDescription: {"info"},
		colWeather:     {"weather_info"},
		colGroupSize:   {"group"},
	},
	tableObservations: {
		colHikeRef:  {"hike"},
		colObsText:  {"content"},
		colObsTime:  {"timestamp", "obs_time"},
		colComments: {"notes"},
	},
}

// column is one row of PRAGMA table_info.
type column struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

func (c column) required() bool {
	return c.NotNull == 1 && c.Default == nil && c.PK == 0
}

// tableInfo is the live column set of one table, keyed by lower-cased name.
type tableInfo map[string]column

func (t tableInfo) has(name string) bool {
	_, ok := t[strings.ToLower(name)]
	return ok
}

// resolve returns the column to use for canonical: the canonical column if
// present, otherwise the first legacy alias present, otherwise "".
func (t tableInfo) resolve(table, canonical string) string {
	if t.has(canonical) {
		return canonical
	}
	for _, alias := range legacyAliases[table][canonical] {
		if t.has(alias) {
			return alias
		}
	}
	return ""
}

// residualAliases returns alias columns of canonical still present in the table.
func (t tableInfo) residualAliases(table, canonical string) []string {
	var out []string
	for _, alias := range legacyAliases[table][canonical] {
		if t.has(alias) {
			out = append(out, alias)
		}
	}
	return out
}

func (t tableInfo) names() []string {
	out := make([]string, 0, len(t))
	for _, c := range t {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

// liveSchema caches table_info per table. It is loaded once after migrating.
type liveSchema map[string]tableInfo

func (s *Store) tableInfo(db queryer, table string) (tableInfo, error) {
	rows, err := s.queryHook(db, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, merry.Prependf(err, "table_info %s", table)
	}
	defer rows.Close()

	info := tableInfo{}
	for rows.Next() {
		var c column
		if err := rows.StructScan(&c); err != nil {
			return nil, merry.Prependf(err, "scan table_info %s", table)
		}
		info[strings.ToLower(c.Name)] = c
	}
	if err := rows.Err(); err != nil {
		return nil, merry.Prependf(err, "iterate table_info %s", table)
	}
	return info, nil
}

// loadSchema refreshes the cached column sets. A table that cannot be read
// is cached as empty so later calls degrade instead of failing.
func (s *Store) loadSchema() {
	schema := liveSchema{}
	for _, table := range []string{tableHikes, tableObservations} {
		info, err := s.tableInfo(s.db, table)
		if err != nil {
			s.fail("loadSchema", err, "table", table)
			info = tableInfo{}
		}
		schema[table] = info
		s.log.Debug("live columns", "table", table, "columns", strings.Join(info.names(), ","))
	}
	s.schema = schema
}

func (s *Store) columns(table string) tableInfo {
	if t, ok := s.schema[table]; ok {
		return t
	}
	return tableInfo{}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// zeroFor returns the defensive default for a NOT NULL column left unset.
func zeroFor(table string, c column) any {
	if table == tableHikes && (strings.EqualFold(c.Name, colDifficulty) || strings.EqualFold(c.Name, "level")) {
		return DifficultyEasy
	}
	typ := strings.ToUpper(c.Type)
	switch {
	case strings.Contains(typ, "INT"):
		return 0
	case strings.Contains(typ, "REAL"), strings.Contains(typ, "FLOA"), strings.Contains(typ, "DOUB"):
		return 0.0
	default:
		return ""
	}
}
