package hikestore

// Difficulty values offered by the hike form. The store accepts any text.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// DifficultyValues returns the enum values for tool definitions.
func DifficultyValues() []string {
	return []string{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// Hike is a logged outdoor excursion.
//
// Hikes are values: the store never mutates a caller's Hike. AddHike returns
// the assigned id and callers use WithID to get the persisted value.
type Hike struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Location    string  `json:"location" yaml:"location"`
	Date        string  `json:"date" yaml:"date"`
	Parking     bool    `json:"parking" yaml:"parking"`
	Length      float64 `json:"length" yaml:"length"` // kilometers
	Difficulty  string  `json:"difficulty" yaml:"difficulty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Weather     string  `json:"weather,omitempty" yaml:"weather,omitempty"`
	GroupSize   int     `json:"group_size" yaml:"group_size"` // 0 means unspecified
}

// HikeOption sets an optional attribute on a Hike under construction.
type HikeOption func(*Hike)

// NewHike builds a Hike from its required attributes plus options.
// Difficulty defaults to Easy.
func NewHike(name, location, date string, opts ...HikeOption) Hike {
	h := Hike{Name: name, Location: location, Date: date, Difficulty: DifficultyEasy}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// WithParking sets the parking flag.
func WithParking(v bool) HikeOption { return func(h *Hike) { h.Parking = v } }

// WithLength sets the length in kilometers.
func WithLength(km float64) HikeOption { return func(h *Hike) { h.Length = km } }

// WithDifficulty sets the difficulty text.
func WithDifficulty(d string) HikeOption { return func(h *Hike) { h.Difficulty = d } }

// WithDescription sets the free-text description.
func WithDescription(d string) HikeOption { return func(h *Hike) { h.Description = d } }

// WithWeather sets the weather note.
func WithWeather(w string) HikeOption { return func(h *Hike) { h.Weather = w } }

// WithGroupSize sets the group size.
func WithGroupSize(n int) HikeOption { return func(h *Hike) { h.GroupSize = n } }

// WithID returns a copy of h carrying id.
func (h Hike) WithID(id int64) Hike {
	h.ID = id
	return h
}

// Observation is a timestamped note attached to a hike.
type Observation struct {
	ID       int64  `json:"id" yaml:"id"`
	HikeID   int64  `json:"hike_id" yaml:"hike_id"`
	Text     string `json:"text" yaml:"text"`
	Time     string `json:"time" yaml:"time"`
	Comments string `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// WithID returns a copy of o carrying id.
func (o Observation) WithID(id int64) Observation {
	o.ID = id
	return o
}

// HikeFilter holds the advanced search criteria. Empty fields are ignored.
// Distance is matched exactly when it parses as a number and ignored otherwise.
type HikeFilter struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	Distance string `json:"distance,omitempty"`
	Date     string `json:"date,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (f HikeFilter) IsEmpty() bool {
	return f.Name == "" && f.Location == "" && f.Distance == "" && f.Date == ""
}

// Stats holds aggregate hike log statistics.
type Stats struct {
	TotalHikes        int            `json:"total_hikes"`
	TotalObservations int            `json:"total_observations"`
	TotalLengthKm     float64        `json:"total_length_km"`
	ByDifficulty      map[string]int `json:"by_difficulty"`
}
