package types

// DateWindow is a month-granularity index pair over the observed date span
// of the corpus. Index 0 is January of BaseYear; index 12 is January of
// BaseYear+1, and so on.
type DateWindow struct {
	MinIndex int `json:"min_index" yaml:"min_index"`
	MaxIndex int `json:"max_index" yaml:"max_index"`
	BaseYear int `json:"base_year" yaml:"base_year"`
}
