package people

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

type localeData struct {
	locale    string
	country   string
	domain    string
	firstMale []string
	firstFem  []string
	last      []string
	cities    []string
	streets   []string
	zip       func(r *rand.Rand) string
}

var locales = []localeData{
	{
		locale: "en_gb", country: "gb", domain: "example.co.uk",
		firstMale: []string{"Oliver", "George", "Harry", "Jack", "Charlie"},
		firstFem:  []string{"Olivia", "Amelia", "Isla", "Ava", "Emily"},
		last:      []string{"Smith", "Jones", "Taylor", "Brown", "Williams"},
		cities:    []string{"London", "Leeds", "Bristol", "York", "Bath"},
		streets:   []string{"High Street", "Station Road", "Church Lane", "Mill Road"},
		zip: func(r *rand.Rand) string {
			return fmt.Sprintf("%c%c%d %d%c%c", 'A'+r.IntN(26), 'A'+r.IntN(26), 1+r.IntN(20), r.IntN(10), 'A'+r.IntN(26), 'A'+r.IntN(26))
		},
	},
	{
		locale: "en_us", country: "us", domain: "example.com",
		firstMale: []string{"James", "Robert", "John", "Michael", "David"},
		firstFem:  []string{"Mary", "Patricia", "Jennifer", "Linda", "Susan"},
		last:      []string{"Johnson", "Miller", "Davis", "Garcia", "Wilson"},
		cities:    []string{"Springfield", "Portland", "Austin", "Denver", "Boston"},
		streets:   []string{"Main Street", "Oak Avenue", "Maple Drive", "Pine Court"},
		zip: func(r *rand.Rand) string {
			return fmt.Sprintf("%05d", r.IntN(100000))
		},
	},
	{
		locale: "cs_cz", country: "cz", domain: "example.cz",
		firstMale: []string{"Jan", "Jiří", "Petr", "Josef", "Pavel"},
		firstFem:  []string{"Marie", "Jana", "Eva", "Hana", "Anna"},
		last:      []string{"Novák", "Svoboda", "Novotný", "Dvořák", "Černý"},
		cities:    []string{"Praha", "Brno", "Ostrava", "Plzeň", "Olomouc"},
		streets:   []string{"Husova", "Nádražní", "Školní", "Palackého"},
		zip: func(r *rand.Rand) string {
			return fmt.Sprintf("%03d %02d", 100+r.IntN(700), r.IntN(100))
		},
	},
	{
		locale: "fr", country: "fr", domain: "example.fr",
		firstMale: []string{"Lucas", "Hugo", "Louis", "Gabriel", "Arthur"},
		firstFem:  []string{"Emma", "Jade", "Louise", "Chloé", "Léa"},
		last:      []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert"},
		cities:    []string{"Paris", "Lyon", "Marseille", "Nantes", "Lille"},
		streets:   []string{"rue de la Paix", "avenue Victor Hugo", "boulevard Voltaire", "rue Nationale"},
		zip: func(r *rand.Rand) string {
			return fmt.Sprintf("%05d", 1000+r.IntN(95000))
		},
	},
	{
		locale: "de", country: "de", domain: "example.de",
		firstMale: []string{"Lukas", "Leon", "Finn", "Paul", "Jonas"},
		firstFem:  []string{"Mia", "Hannah", "Lena", "Lea", "Sophie"},
		last:      []string{"Müller", "Schmidt", "Schneider", "Fischer", "Weber"},
		cities:    []string{"Berlin", "Hamburg", "München", "Köln", "Dresden"},
		streets:   []string{"Hauptstraße", "Bahnhofstraße", "Gartenstraße", "Schulstraße"},
		zip: func(r *rand.Rand) string {
			return fmt.Sprintf("%05d", 1000+r.IntN(99000))
		},
	},
}

// Generate returns count synthetic people. The same seed always yields the
// same people.
func Generate(count int, seed uint64) []Person {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	r := rand.New(src)

	out := make([]Person, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, generatePerson(r, src))
	}
	return out
}

func generatePerson(r *rand.Rand, src *rand.ChaCha8) Person {
	l := locales[r.IntN(len(locales))]

	sex := "male"
	names := l.firstMale
	if r.IntN(2) == 1 {
		sex = "female"
		names = l.firstFem
	}
	first := names[r.IntN(len(names))]
	last := l.last[r.IntN(len(l.last))]

	country := l.country
	zip := l.zip(r)
	city := l.cities[r.IntN(len(l.cities))]
	line1 := fmt.Sprintf("%d %s", 1+r.IntN(250), l.streets[r.IntN(len(l.streets))])
	locale := l.locale

	return Person{
		ID:        uuid.Must(uuid.NewRandomFromReader(src)).String(),
		FirstName: first,
		LastName:  last,
		Sex:       sex,
		Email:     fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), r.IntN(100), l.domain),
		Address: &Address{
			Country: &country,
			ZipCode: &zip,
			City:    &city,
			Line1:   &line1,
		},
		Settings: &Settings{Locale: &locale},
	}
}
