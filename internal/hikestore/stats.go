package hikestore

import (
	"github.com/ansel1/merry"
)

// Stats returns aggregate counts over the whole log.
func (s *Store) Stats() (Stats, error) {
	st := Stats{ByDifficulty: map[string]int{}}

	if err := s.db.Get(&st.TotalHikes, `SELECT COUNT(*) FROM hikes`); err != nil {
		return Stats{}, merry.Prepend(err, "count hikes")
	}
	if err := s.db.Get(&st.TotalObservations, `SELECT COUNT(*) FROM observations`); err != nil {
		return Stats{}, merry.Prepend(err, "count observations")
	}

	info := s.columns(tableHikes)
	if col := info.resolve(tableHikes, colLength); col != "" {
		q := "SELECT COALESCE(SUM(" + quoteIdent(col) + "), 0) FROM hikes"
		if err := s.db.Get(&st.TotalLengthKm, q); err != nil {
			return Stats{}, merry.Prepend(err, "sum length")
		}
	}

	col := info.resolve(tableHikes, colDifficulty)
	if col == "" {
		if st.TotalHikes > 0 {
			st.ByDifficulty[DifficultyEasy] = st.TotalHikes
		}
		return st, nil
	}

	var groups []struct {
		Difficulty string `db:"difficulty"`
		N          int    `db:"n"`
	}
	c := quoteIdent(col)
	q := "SELECT COALESCE(NULLIF(" + c + ", ''), 'Easy') AS difficulty, COUNT(*) AS n FROM hikes GROUP BY 1 ORDER BY 1"
	if err := s.db.Select(&groups, q); err != nil {
		return Stats{}, merry.Prepend(err, "group by difficulty")
	}
	for _, g := range groups {
		st.ByDifficulty[g.Difficulty] = g.N
	}
	return st, nil
}
