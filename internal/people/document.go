package people

import (
	"fmt"

	"github.com/vexsearch/mergebench/internal/fts"
	"github.com/vexsearch/mergebench/internal/schema"
)

// Field names of the people schema.
const (
	FieldID                = "id"
	FieldFirstName         = "first_name"
	FieldFirstNameNgram    = "first_name_ngram"
	FieldLastName          = "last_name"
	FieldLastNameNgram     = "last_name_ngram"
	FieldSex               = "sex"
	FieldEmail             = "email"
	FieldEmailNgram        = "email_ngram"
	FieldAddressCountry    = "address_country"
	FieldAddressZipCode    = "address_zip_code"
	FieldAddressCity       = "address_city"
	FieldAddressCityNgram  = "address_city_ngram"
	FieldAddressLine1      = "address_line_1"
	FieldAddressLine1Ngram = "address_line_1_ngram"
	FieldAddressLine2      = "address_line_2"
	FieldAddressLine2Ngram = "address_line_2_ngram"
)

// Tokenizer names registered by RegisterTokenizers.
const (
	TokenizerSimple    = "simple"
	TokenizerNgram2to4 = "ngram_2_4"
)

// BuildSchema returns the people document schema.
func BuildSchema() (*schema.Schema, error) {
	return schema.NewBuilder().
		AddStringField(FieldID, true).
		AddTextField(FieldFirstName, TokenizerSimple, false).
		AddTextField(FieldFirstNameNgram, TokenizerNgram2to4, false).
		AddTextField(FieldLastName, TokenizerSimple, false).
		AddTextField(FieldLastNameNgram, TokenizerNgram2to4, false).
		AddFacetField(FieldSex).
		AddTextField(FieldEmail, TokenizerSimple, false).
		AddTextField(FieldEmailNgram, TokenizerNgram2to4, false).
		AddFacetField(FieldAddressCountry).
		AddTextField(FieldAddressZipCode, TokenizerSimple, false).
		AddTextField(FieldAddressCity, TokenizerSimple, false).
		AddTextField(FieldAddressCityNgram, TokenizerNgram2to4, false).
		AddTextField(FieldAddressLine1, TokenizerSimple, false).
		AddTextField(FieldAddressLine1Ngram, TokenizerNgram2to4, false).
		AddTextField(FieldAddressLine2, TokenizerSimple, false).
		AddTextField(FieldAddressLine2Ngram, TokenizerNgram2to4, false).
		Build()
}

// RegisterTokenizers adds the "simple" and "ngram_2_4" tokenizers used by
// the people schema.
func RegisterTokenizers(m *fts.TokenizerManager) error {
	if err := m.RegisterConfig(TokenizerSimple, &fts.Config{Tokenizer: "simple"}); err != nil {
		return err
	}
	return m.RegisterConfig(TokenizerNgram2to4, &fts.Config{
		Tokenizer:     "ngram",
		MinGram:       2,
		MaxGram:       4,
		CaseSensitive: true,
	})
}

// ToDocument converts a person into a document of the people schema.
func (p Person) ToDocument() (*schema.Document, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: person without id", ErrInvalidData)
	}

	doc := schema.NewDocument()
	doc.Add(FieldID, p.ID)
	doc.Add(FieldFirstName, p.FirstName)
	doc.Add(FieldFirstNameNgram, p.FirstName)
	doc.Add(FieldLastName, p.LastName)
	doc.Add(FieldLastNameNgram, p.LastName)
	doc.Add(FieldEmail, p.Email)
	doc.Add(FieldEmailNgram, p.Email)
	doc.AddFacet(FieldSex, "/sex/"+p.Sex)

	if a := p.Address; a != nil {
		if a.Country != nil {
			doc.AddFacet(FieldAddressCountry, "/country/"+*a.Country)
		}
		doc.AddOptional(FieldAddressZipCode, a.ZipCode)
		doc.AddOptional(FieldAddressCity, a.City)
		doc.AddOptional(FieldAddressCityNgram, a.City)
		doc.AddOptional(FieldAddressLine1, a.Line1)
		doc.AddOptional(FieldAddressLine1Ngram, a.Line1)
		doc.AddOptional(FieldAddressLine2, a.Line2)
		doc.AddOptional(FieldAddressLine2Ngram, a.Line2)
	}

	return doc, nil
}
