package leads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dukex/outreach/pkg/models"
	"github.com/go-playground/validator/v10"
)

// DefaultCountryCode is used when the import has no country code column.
const DefaultCountryCode = "+1"

// ImportResult describes the outcome of an import.
type ImportResult struct {
	Leads   []models.Lead `json:"leads"`
	Skipped int           `json:"skipped"`
	Invalid int           `json:"invalid"`
}

// Importer turns a CSV export into leads. Column positions are detected from
// the header row by substring: name, phone, email and country or code.
type Importer struct {
	validate *validator.Validate
}

func NewImporter() *Importer {
	return &Importer{validate: validator.New(validator.WithRequiredStructEnabled())}
}

type columns struct {
	name, phone, email, country int
}

func detectColumns(header []string) (columns, error) {
	cols := columns{name: -1, phone: -1, email: -1, country: -1}

	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(raw))

		switch {
		case cols.name < 0 && strings.Contains(h, "name"):
			cols.name = i
		case cols.phone < 0 && strings.Contains(h, "phone"):
			cols.phone = i
		case cols.email < 0 && strings.Contains(h, "email"):
			cols.email = i
		case cols.country < 0 && (strings.Contains(h, "country") || strings.Contains(h, "code")):
			cols.country = i
		}
	}

	if cols.name < 0 || cols.phone < 0 || cols.email < 0 {
		return cols, ErrMissingColumns
	}

	return cols, nil
}

// Import reads every row of r. Rows missing a name, phone or email are
// skipped; rows that fail validation enter with status invalid.
func (im *Importer) Import(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingColumns
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := detectColumns(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Leads: []models.Lead{}}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		lead, ok := im.parseRecord(record, cols)
		if !ok {
			result.Skipped++

			continue
		}

		if lead.Status == models.LeadStatusInvalid {
			result.Invalid++
		}

		result.Leads = append(result.Leads, lead)
	}

	return result, nil
}

func (im *Importer) parseRecord(record []string, cols columns) (models.Lead, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[i])
	}

	if len(record) < 2 {
		return models.Lead{}, false
	}

	lead := models.Lead{
		Name:        field(cols.name),
		Phone:       field(cols.phone),
		Email:       field(cols.email),
		CountryCode: field(cols.country),
		Status:      models.LeadStatusPending,
	}

	if lead.Name == "" || lead.Phone == "" || lead.Email == "" {
		return models.Lead{}, false
	}

	if lead.CountryCode == "" {
		lead.CountryCode = DefaultCountryCode
	}

	if err := im.validate.Struct(lead); err != nil || models.DigitsOnly(lead.Phone) == "" {
		lead.Status = models.LeadStatusInvalid
	}

	return lead, true
}
