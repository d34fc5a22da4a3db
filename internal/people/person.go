// Package people holds the input record model of the benchmark and its
// conversion into indexable documents.
package people

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInvalidData is returned when the people data cannot be parsed.
var ErrInvalidData = errors.New("invalid people data")

// Person is one input record.
type Person struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Sex       string    `json:"sex"`
	Email     string    `json:"email"`
	Address   *Address  `json:"address,omitempty"`
	Settings  *Settings `json:"settings,omitempty"`
}

// Address is the optional postal address of a person.
type Address struct {
	Country *string `json:"country,omitempty"`
	ZipCode *string `json:"zipCode,omitempty"`
	City    *string `json:"city,omitempty"`
	Line1   *string `json:"line1,omitempty"`
	Line2   *string `json:"line2,omitempty"`
}

// Settings holds per-person preferences.
type Settings struct {
	Locale *string `json:"locale,omitempty"`
}

// Load reads a JSON array of people from path.
func Load(path string) ([]Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the data: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a JSON array of people.
func Decode(r io.Reader) ([]Person, error) {
	var people []Person
	if err := json.NewDecoder(r).Decode(&people); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return people, nil
}

// Encode writes people as a JSON array.
func Encode(w io.Writer, people []Person) error {
	return json.NewEncoder(w).Encode(people)
}
