package hikestore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ─── Writes ──────────────────────────────────────────────────────────────────

// rowValues is an ordered column -> value set for one INSERT or UPDATE.
type rowValues struct {
	table string
	info  tableInfo
	cols  []string
	args  []any
	seen  map[string]bool
}

func newRowValues(table string, info tableInfo) *rowValues {
	return &rowValues{table: table, info: info, seen: map[string]bool{}}
}

func (v *rowValues) put(col string, val any) {
	key := strings.ToLower(col)
	if v.seen[key] {
		return
	}
	v.seen[key] = true
	v.cols = append(v.cols, col)
	v.args = append(v.args, val)
}

// set writes val to the column that stands for canonical in the live table,
// plus any legacy alias the migration could not remove. An attribute with
// no column at all is omitted.
func (v *rowValues) set(canonical string, val any) {
	col := v.info.resolve(v.table, canonical)
	if col == "" {
		return
	}
	v.put(col, val)
	for _, alias := range v.info.residualAliases(v.table, canonical) {
		v.put(alias, val)
	}
}

// fillRequired gives every NOT NULL column without a default that is still
// unset a type-appropriate zero, so inserts never trip the constraint.
func (v *rowValues) fillRequired() {
	for key, c := range v.info {
		if !c.required() || v.seen[key] {
			continue
		}
		v.put(c.Name, zeroFor(v.table, c))
	}
}

func (v *rowValues) insertSQL() string {
	if len(v.cols) == 0 {
		return "INSERT INTO " + quoteIdent(v.table) + " DEFAULT VALUES"
	}
	quoted := make([]string, len(v.cols))
	for i, c := range v.cols {
		quoted[i] = quoteIdent(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(v.cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(v.table), strings.Join(quoted, ", "), marks)
}

func (v *rowValues) updateSQL() string {
	sets := make([]string, len(v.cols))
	for i, c := range v.cols {
		sets[i] = quoteIdent(c) + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", quoteIdent(v.table), strings.Join(sets, ", "), quoteIdent(colID))
}

func hikeValues(info tableInfo, h Hike) *rowValues {
	v := newRowValues(tableHikes, info)
	difficulty := h.Difficulty
	if difficulty == "" {
		difficulty = DifficultyEasy
	}
	parking := 0
	if h.Parking {
		parking = 1
	}
	v.set(colName, h.Name)
	v.set(colLocation, h.Location)
	v.set(colDate, h.Date)
	v.set(colParking, parking)
	v.set(colLength, h.Length)
	v.set(colDifficulty, difficulty)
	v.set(colDescription, h.Description)
	v.set(colWeather, h.Weather)
	v.set(colGroupSize, h.GroupSize)
	return v
}

func observationValues(info tableInfo, o Observation) *rowValues {
	v := newRowValues(tableObservations, info)
	v.set(colHikeRef, o.HikeID)
	v.set(colObsText, o.Text)
	v.set(colObsTime, o.Time)
	v.set(colComments, o.Comments)
	return v
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// record is one row keyed by lower-cased column name.
type record map[string]any

func scanRecords(rows *sqlx.Rows) ([]record, error) {
	defer rows.Close()
	var out []record
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, err
		}
		r := make(record, len(raw))
		for k, val := range raw {
			r[strings.ToLower(k)] = val
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// lookup returns the value for canonical, falling back to its legacy aliases.
func (r record) lookup(table, canonical string) (any, bool) {
	if v, ok := r[canonical]; ok {
		return v, true
	}
	for _, alias := range legacyAliases[table][canonical] {
		if v, ok := r[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func (r record) asString(table, canonical, def string) string {
	v, ok := r.lookup(table, canonical)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func (r record) asInt(table, canonical string) int64 {
	v, ok := r.lookup(table, canonical)
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return t
	case float64:
		return int64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
		return n
	default:
		return 0
	}
}

func (r record) asFloat(table, canonical string) float64 {
	v, ok := r.lookup(table, canonical)
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f
	default:
		return 0
	}
}

func hikeFromRecord(r record) Hike {
	t := tableHikes
	return Hike{
		ID:          r.asInt(t, colID),
		Name:        r.asString(t, colName, ""),
		Location:    r.asString(t, colLocation, ""),
		Date:        r.asString(t, colDate, ""),
		Parking:     r.asInt(t, colParking) != 0,
		Length:      r.asFloat(t, colLength),
		Difficulty:  r.asString(t, colDifficulty, DifficultyEasy),
		Description: r.asString(t, colDescription, ""),
		Weather:     r.asString(t, colWeather, ""),
		GroupSize:   int(r.asInt(t, colGroupSize)),
	}
}

func observationFromRecord(r record) Observation {
	t := tableObservations
	return Observation{
		ID:       r.asInt(t, colID),
		HikeID:   r.asInt(t, colHikeRef),
		Text:     r.asString(t, colObsText, ""),
		Time:     r.asString(t, colObsTime, ""),
		Comments: r.asString(t, colComments, ""),
	}
}
