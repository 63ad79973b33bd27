// Package extraction loads the harvested family-tree dump and derives the
// scraped population with inferred parent/children context.
package extraction

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMalformed reports a dump that is not shaped like {"people": {...}}.
var ErrMalformed = eris.New("extraction: malformed dataset")

// PID is a scraped person id. The dump writes it as a JSON number or string;
// both decode to the same canonical decimal string.
type PID string

// UnmarshalJSON accepts numbers, strings and null.
func (p *PID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*p = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return eris.Wrap(err, "extraction: decode pid")
		}
		*p = canonicalPID(s)
		return nil
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return eris.Wrapf(err, "extraction: invalid pid %s", b)
		}
		if f == float64(int64(f)) {
			*p = PID(strconv.FormatInt(int64(f), 10))
			return nil
		}
		*p = PID(string(b))
		return nil
	}
}

func canonicalPID(s string) PID {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return PID(strconv.FormatInt(n, 10))
	}
	return PID(s)
}

// Relation is one raw relation link on a scraped page. The dump stores these
// under "children" although the page does not type the relation.
type Relation struct {
	Name string `json:"name"`
	PID  PID    `json:"pid"`
}

// Person is one harvested person page.
type Person struct {
	PID       PID        `json:"pid"`
	Name      string     `json:"name"`
	BirthDate string     `json:"birth_date"`
	DeathDate string     `json:"death_date"`
	Gender    string     `json:"gender"`
	Relations []Relation `json:"children"`
	Photos    []string   `json:"photos"`
}

// Dataset is the full harvested dump keyed by canonical pid.
type Dataset struct {
	ExtractionDate       string            `json:"extraction_date"`
	FamilyName           string            `json:"family_name"`
	ExtractionMethod     string            `json:"extraction_method"`
	TotalPeopleExtracted int               `json:"total_people_extracted"`
	People               map[string]Person `json:"-"`
}

// Load decodes a dump. Anything other than an object with a "people"
// object is rejected with ErrMalformed.
func Load(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "extraction: read dataset")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "decode top level: %v", err)
	}

	rawPeople, ok := top["people"]
	if !ok {
		return nil, eris.Wrap(ErrMalformed, "missing people")
	}
	if t := bytes.TrimSpace(rawPeople); len(t) == 0 || t[0] != '{' {
		return nil, eris.Wrap(ErrMalformed, "people is not an object")
	}

	ds := &Dataset{}
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "decode metadata: %v", err)
	}

	var people map[string]Person
	if err := json.Unmarshal(rawPeople, &people); err != nil {
		return nil, eris.Wrapf(ErrMalformed, "decode people: %v", err)
	}

	ds.People = make(map[string]Person, len(people))
	for key, p := range people {
		pid := canonicalPID(key)
		if p.PID == "" {
			p.PID = pid
		}
		ds.People[string(pid)] = p
	}
	return ds, nil
}

// LoadFile reads a dump from disk.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extraction: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	ds, err := Load(f)
	if err != nil {
		return nil, eris.Wrapf(err, "extraction: load %s", path)
	}
	return ds, nil
}
