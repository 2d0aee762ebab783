package hikestore

import (
	"github.com/ansel1/merry"
)

// AddObservation inserts o and returns the new id, or -1 on failure.
// The time is written to every time column the table still has.
func (s *Store) AddObservation(o Observation) int64 {
	v := observationValues(s.columns(tableObservations), o)
	v.fillRequired()

	res, err := s.execHook(s.db, v.insertSQL(), v.args...)
	if err != nil {
		s.fail("AddObservation", merry.Wrap(err), "hike_id", o.HikeID)
		return -1
	}
	id, err := res.LastInsertId()
	if err != nil || id <= 0 {
		s.fail("AddObservation", merry.Errorf("no row id returned: %v", err), "hike_id", o.HikeID)
		return -1
	}
	s.log.Debug("observation added", "id", id, "hike_id", o.HikeID)
	return id
}

// UpdateObservation overwrites the stored observation with o.ID and returns
// the number of rows changed.
func (s *Store) UpdateObservation(o Observation) int64 {
	v := observationValues(s.columns(tableObservations), o)
	if len(v.cols) == 0 {
		return 0
	}

	res, err := s.execHook(s.db, v.updateSQL(), append(v.args, o.ID)...)
	if err != nil {
		s.fail("UpdateObservation", merry.Wrap(err), "id", o.ID)
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.fail("UpdateObservation", merry.Wrap(err), "id", o.ID)
		return 0
	}
	return n
}

// DeleteObservation removes one observation.
func (s *Store) DeleteObservation(id int64) {
	if _, err := s.execHook(s.db, `DELETE FROM observations WHERE id = ?`, id); err != nil {
		s.fail("DeleteObservation", merry.Wrap(err), "id", id)
	}
}

// GetObservation returns the observation with id, and false if there is none.
func (s *Store) GetObservation(id int64) (Observation, bool) {
	obs, err := s.queryObservations(`SELECT * FROM observations WHERE id = ?`, id)
	if err != nil {
		s.fail("GetObservation", err, "id", id)
		return Observation{}, false
	}
	if len(obs) == 0 {
		return Observation{}, false
	}
	return obs[0], true
}

// GetObservationsByHike returns the observations of one hike, latest time
// first, or by id descending when the table has no time column.
func (s *Store) GetObservationsByHike(hikeID int64) []Observation {
	obs, err := s.observationsOf(hikeID)
	if err != nil {
		s.fail("GetObservationsByHike", err, "hike_id", hikeID)
		return []Observation{}
	}
	return obs
}

func (s *Store) observationsOf(hikeID int64) ([]Observation, error) {
	info := s.columns(tableObservations)
	ref := info.resolve(tableObservations, colHikeRef)
	if ref == "" {
		return []Observation{}, nil
	}

	order := quoteIdent(colID) + " DESC"
	if t := info.resolve(tableObservations, colObsTime); t != "" {
		order = quoteIdent(t) + " DESC, " + order
	}
	q := "SELECT * FROM observations WHERE " + quoteIdent(ref) + " = ? ORDER BY " + order
	return s.queryObservations(q, hikeID)
}

func (s *Store) queryObservations(q string, args ...any) ([]Observation, error) {
	rows, err := s.queryHook(s.db, q, args...)
	if err != nil {
		return nil, merry.Wrap(err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, merry.Wrap(err)
	}
	obs := make([]Observation, 0, len(recs))
	for _, r := range recs {
		obs = append(obs, observationFromRecord(r))
	}
	return obs, nil
}
