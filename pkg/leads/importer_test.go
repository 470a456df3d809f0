package leads

import (
	"strings"
	"testing"

	"github.com/dukex/outreach/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporter_Import(t *testing.T) {
	csv := strings.Join([]string{
		"Full Name,Phone Number,Email Address,Country Code",
		"Ada Lovelace,(555) 010-0100,ada@example.com,+44",
		"Grace Hopper,555 0101,grace@example.com,",
		"No Email,555 0102,,+1",
		"Bad Email,555 0103,not-an-email,+1",
		"No Digits,call me,nodigits@example.com,+1",
		"",
	}, "\n")

	result, err := NewImporter().Import(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, result.Leads, 4)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Invalid)

	ada := result.Leads[0]
	assert.Equal(t, "Ada Lovelace", ada.Name)
	assert.Equal(t, "+44", ada.CountryCode)
	assert.Equal(t, models.LeadStatusPending, ada.Status)
	assert.Equal(t, "+445550100100", ada.DialNumber())

	assert.Equal(t, DefaultCountryCode, result.Leads[1].CountryCode)
	assert.Equal(t, models.LeadStatusInvalid, result.Leads[2].Status)
	assert.Equal(t, models.LeadStatusInvalid, result.Leads[3].Status)
}

func TestImporter_MissingColumns(t *testing.T) {
	_, err := NewImporter().Import(strings.NewReader("name,phone\nAda,555"))
	require.ErrorIs(t, err, ErrMissingColumns)

	_, err = NewImporter().Import(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestImporter_WithoutCountryColumn(t *testing.T) {
	result, err := NewImporter().Import(strings.NewReader("name,email,phone\nAda,ada@example.com,5550100"))
	require.NoError(t, err)

	require.Len(t, result.Leads, 1)
	assert.Equal(t, "+15550100", result.Leads[0].DialNumber())
}
