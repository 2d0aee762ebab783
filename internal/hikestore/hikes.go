package hikestore

import (
	"strconv"
	"strings"

	"github.com/ansel1/merry"
)

// AddHike inserts h and returns the new id, or -1 if the insert failed.
// The caller's value is not modified; use h.WithID(id).
func (s *Store) AddHike(h Hike) int64 {
	v := hikeValues(s.columns(tableHikes), h)
	v.fillRequired()

	res, err := s.execHook(s.db, v.insertSQL(), v.args...)
	if err != nil {
		s.fail("AddHike", merry.Wrap(err), "name", h.Name)
		return -1
	}
	id, err := res.LastInsertId()
	if err != nil || id <= 0 {
		s.fail("AddHike", merry.Errorf("no row id returned: %v", err), "name", h.Name)
		return -1
	}
	s.log.Debug("hike added", "id", id)
	return id
}

// UpdateHike overwrites the stored hike with h.ID and returns the number of
// rows changed: 1 on success, 0 if no hike matched or the update failed.
func (s *Store) UpdateHike(h Hike) int64 {
	v := hikeValues(s.columns(tableHikes), h)
	if len(v.cols) == 0 {
		return 0
	}

	res, err := s.execHook(s.db, v.updateSQL(), append(v.args, h.ID)...)
	if err != nil {
		s.fail("UpdateHike", merry.Wrap(err), "id", h.ID)
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.fail("UpdateHike", merry.Wrap(err), "id", h.ID)
		return 0
	}
	return n
}

// DeleteHike removes the hike and every observation that references it.
// The foreign key cascades on current schemas; the explicit delete covers
// legacy tables whose reference column carries no constraint.
func (s *Store) DeleteHike(id int64) {
	tx, err := s.beginTxHook()
	if err != nil {
		s.fail("DeleteHike", merry.Wrap(err), "id", id)
		return
	}
	defer func() { _ = tx.Rollback() }()

	if ref := s.columns(tableObservations).resolve(tableObservations, colHikeRef); ref != "" {
		q := "DELETE FROM " + quoteIdent(tableObservations) + " WHERE " + quoteIdent(ref) + " = ?"
		if _, err := s.execHook(tx, q, id); err != nil {
			s.fail("DeleteHike", merry.Wrap(err), "id", id)
			return
		}
	}
	if _, err := s.execHook(tx, `DELETE FROM hikes WHERE id = ?`, id); err != nil {
		s.fail("DeleteHike", merry.Wrap(err), "id", id)
		return
	}
	if err := tx.Commit(); err != nil {
		s.fail("DeleteHike", merry.Wrap(err), "id", id)
	}
}

// DeleteAllHikes removes every observation, then every hike.
func (s *Store) DeleteAllHikes() {
	tx, err := s.beginTxHook()
	if err != nil {
		s.fail("DeleteAllHikes", merry.Wrap(err))
		return
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{`DELETE FROM observations`, `DELETE FROM hikes`} {
		if _, err := s.execHook(tx, q); err != nil {
			s.fail("DeleteAllHikes", merry.Wrap(err))
			return
		}
	}
	if err := tx.Commit(); err != nil {
		s.fail("DeleteAllHikes", merry.Wrap(err))
	}
}

// GetHike returns the hike with id, and false if there is none or the read failed.
func (s *Store) GetHike(id int64) (Hike, bool) {
	hikes, err := s.queryHikes(`SELECT * FROM hikes WHERE id = ?`, id)
	if err != nil {
		s.fail("GetHike", err, "id", id)
		return Hike{}, false
	}
	if len(hikes) == 0 {
		return Hike{}, false
	}
	return hikes[0], true
}

// GetAllHikes returns every hike, newest date first. Dates sort as text.
func (s *Store) GetAllHikes() []Hike {
	hikes, err := s.queryHikes(`SELECT * FROM hikes` + s.hikeOrder())
	if err != nil {
		s.fail("GetAllHikes", err)
		return []Hike{}
	}
	return hikes
}

// SearchHikesByName returns hikes whose name starts with prefix, newest date
// first. Matching follows SQLite LIKE, which ignores ASCII case.
func (s *Store) SearchHikesByName(prefix string) []Hike {
	if !s.columns(tableHikes).has(colName) {
		return []Hike{}
	}
	q := `SELECT * FROM hikes WHERE name LIKE ? ESCAPE '\'` + s.hikeOrder()
	hikes, err := s.queryHikes(q, escapeLike(prefix)+"%")
	if err != nil {
		s.fail("SearchHikesByName", err, "prefix", prefix)
		return []Hike{}
	}
	return hikes
}

// AdvancedSearch returns hikes matching every non-empty field of f, newest
// date first. Name, location and date match as substrings; distance must
// equal the stored length and is ignored when it is not a number. A filter
// on an attribute the live schema lacks matches nothing.
func (s *Store) AdvancedSearch(f HikeFilter) []Hike {
	info := s.columns(tableHikes)
	where := []string{"1=1"}
	var args []any

	contains := func(canonical, val string) bool {
		if val == "" {
			return true
		}
		col := info.resolve(tableHikes, canonical)
		if col == "" {
			return false
		}
		where = append(where, quoteIdent(col)+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(val)+"%")
		return true
	}

	if !contains(colName, f.Name) || !contains(colLocation, f.Location) || !contains(colDate, f.Date) {
		return []Hike{}
	}

	if f.Distance != "" {
		if km, err := strconv.ParseFloat(strings.TrimSpace(f.Distance), 64); err == nil {
			col := info.resolve(tableHikes, colLength)
			if col == "" {
				return []Hike{}
			}
			where = append(where, quoteIdent(col)+" = ?")
			args = append(args, km)
		} else {
			s.log.Debug("distance filter ignored", "distance", f.Distance)
		}
	}

	q := `SELECT * FROM hikes WHERE ` + strings.Join(where, " AND ") + s.hikeOrder()
	hikes, err := s.queryHikes(q, args...)
	if err != nil {
		s.fail("AdvancedSearch", err)
		return []Hike{}
	}
	return hikes
}

func (s *Store) queryHikes(q string, args ...any) ([]Hike, error) {
	rows, err := s.queryHook(s.db, q, args...)
	if err != nil {
		return nil, merry.Wrap(err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, merry.Wrap(err)
	}
	hikes := make([]Hike, 0, len(recs))
	for _, r := range recs {
		hikes = append(hikes, hikeFromRecord(r))
	}
	return hikes, nil
}

// hikeOrder sorts by date descending, with id as tiebreak so equal dates
// list the most recently added first. Without a date column it falls back
// to id alone.
func (s *Store) hikeOrder() string {
	if s.columns(tableHikes).has(colDate) {
		return ` ORDER BY date DESC, id DESC`
	}
	return ` ORDER BY id DESC`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
