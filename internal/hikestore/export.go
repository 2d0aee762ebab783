package hikestore

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ansel1/merry"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ExportFormat is the document format version written by Export.
const ExportFormat = "1"

// ExportData is a full dump of the hike log.
type ExportData struct {
	Version       string         `json:"version" yaml:"version"`
	ExportedAt    string         `json:"exported_at" yaml:"exported_at"`
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	Hikes         []ExportedHike `json:"hikes" yaml:"hikes"`
}

// ExportedHike is a hike with its observations nested.
type ExportedHike struct {
	Hike         `yaml:",inline"`
	Observations []Observation `json:"observations" yaml:"observations"`
}

// ImportResult reports what Import inserted.
type ImportResult struct {
	HikesImported        int `json:"hikes_imported"`
	ObservationsImported int `json:"observations_imported"`
}

// ErrInvalidImport is the cause of every error Import returns for a document
// that does not parse or validate. Test with merry.Is.
var ErrInvalidImport = errors.New("invalid import document")

func invalidImport(format string, args ...any) error {
	return merry.Prependf(ErrInvalidImport, format, args...)
}

//go:embed import_schema.json
var importSchemaJSON []byte

const importSchemaURL = "hikelog-import.json"

var importSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(importSchemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(importSchemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(importSchemaURL)
})

// Export returns every hike with its observations, oldest first.
func (s *Store) Export() (*ExportData, error) {
	version, err := s.userVersion()
	if err != nil {
		return nil, err
	}
	data := &ExportData{
		Version:       ExportFormat,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		SchemaVersion: version,
		Hikes:         []ExportedHike{},
	}

	hikes, err := s.queryHikes(`SELECT * FROM hikes ORDER BY id`)
	if err != nil {
		return nil, merry.Prepend(err, "export hikes")
	}
	for _, h := range hikes {
		obs, err := s.observationsOf(h.ID)
		if err != nil {
			return nil, merry.Prependf(err, "export observations of hike %d", h.ID)
		}
		data.Hikes = append(data.Hikes, ExportedHike{Hike: h, Observations: obs})
	}
	return data, nil
}

// Import validates doc, a JSON or YAML export document, and inserts its
// hikes and observations in one transaction. Ids in the document are
// ignored; new ones are assigned and observations follow their hike.
func (s *Store) Import(doc []byte) (ImportResult, error) {
	data, err := decodeImport(doc)
	if err != nil {
		return ImportResult{}, err
	}

	tx, err := s.beginTxHook()
	if err != nil {
		return ImportResult{}, merry.Prepend(err, "import: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	var res ImportResult
	hikeInfo, obsInfo := s.columns(tableHikes), s.columns(tableObservations)
	for _, eh := range data.Hikes {
		v := hikeValues(hikeInfo, eh.Hike)
		v.fillRequired()
		r, err := s.execHook(tx, v.insertSQL(), v.args...)
		if err != nil {
			return ImportResult{}, merry.Prependf(err, "import hike %q", eh.Name)
		}
		hikeID, err := r.LastInsertId()
		if err != nil {
			return ImportResult{}, merry.Prependf(err, "import hike %q", eh.Name)
		}
		res.HikesImported++

		for _, o := range eh.Observations {
			o.HikeID = hikeID
			ov := observationValues(obsInfo, o)
			ov.fillRequired()
			if _, err := s.execHook(tx, ov.insertSQL(), ov.args...); err != nil {
				return ImportResult{}, merry.Prependf(err, "import observation of hike %q", eh.Name)
			}
			res.ObservationsImported++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, merry.Prepend(err, "import: commit")
	}
	s.log.Info("imported", "hikes", res.HikesImported, "observations", res.ObservationsImported)
	return res, nil
}

// decodeImport parses doc as JSON when it looks like a JSON object and as
// YAML otherwise, validates it, then decodes it into ExportData.
func decodeImport(doc []byte) (*ExportData, error) {
	schema, err := importSchema()
	if err != nil {
		return nil, merry.Prepend(err, "compile import schema")
	}

	isJSON := strings.HasPrefix(strings.TrimSpace(string(doc)), "{")

	var inst any
	var node yaml.Node
	if isJSON {
		inst, err = jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	} else if err = yaml.Unmarshal(doc, &node); err == nil {
		plainTimestamps(&node)
		err = node.Decode(&inst)
	}
	if err != nil {
		return nil, invalidImport("parse: %v", err)
	}

	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, invalidImport("%s", validationSummary(verr))
		}
		return nil, invalidImport("%v", err)
	}

	var data ExportData
	if isJSON {
		err = json.Unmarshal(doc, &data)
	} else {
		err = node.Decode(&data)
	}
	if err != nil {
		return nil, invalidImport("decode: %v", err)
	}
	return &data, nil
}

// plainTimestamps retags unquoted YAML timestamps (date: 2023-09-09) as
// strings. Dates are free text in the log.
func plainTimestamps(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		plainTimestamps(c)
	}
}

// validationSummary flattens a validation error tree into one line per leaf.
func validationSummary(err *jsonschema.ValidationError) string {
	var lines []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := "/" + strings.Join(e.InstanceLocation, "/")
			lines = append(lines, path+": "+e.Error())
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(err)
	return strings.Join(lines, "; ")
}
