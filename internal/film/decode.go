package film

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that f is a usable record: it must carry a non-blank title.
func (f Film) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("film: title is required")
	}
	if err := validatorInstance().Struct(f); err != nil {
		return fmt.Errorf("film: %w", err)
	}
	return nil
}

// Rejected describes a payload element that could not be turned into a Film.
type Rejected struct {
	Index int
	Err   error
}

// DecodeRecords turns the elements of a JSON array into films. Elements that
// are not objects, do not decode, or fail Validate are skipped and reported;
// the order of the surviving films matches the payload.
func DecodeRecords(raw []json.RawMessage) ([]Film, []Rejected) {
	films := make([]Film, 0, len(raw))
	var rejected []Rejected
	for i, r := range raw {
		var f Film
		if !isObject(r) {
			rejected = append(rejected, Rejected{Index: i, Err: fmt.Errorf("film: element is not an object")})
			continue
		}
		if err := json.Unmarshal(r, &f); err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: fmt.Errorf("film: decode: %w", err)})
			continue
		}
		if err := f.Validate(); err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		films = append(films, f)
	}
	return films, rejected
}

// IsArray reports whether data is a JSON array (ignoring leading whitespace).
func IsArray(data []byte) bool {
	return firstByte(data) == '['
}

func isObject(data []byte) bool {
	return firstByte(data) == '{'
}

func firstByte(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}
