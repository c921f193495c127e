package cosmic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAccount struct {
	Owner    string  `json:"owner" validate:"required"`
	Currency string  `json:"currency" validate:"required,oneof=COSMIC_COINS GALAXY_GOLD"`
	Balance  float64 `json:"balance" validate:"gte=0"`
}

func validationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr
}

func TestModel(t *testing.T) {
	got, err := Model[testAccount]().Parse(map[string]any{
		"owner": "John Doe", "currency": "COSMIC_COINS", "balance": float64(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, testAccount{Owner: "John Doe", Currency: "COSMIC_COINS", Balance: 1000}, got)

	// Values already of the target type are used as they are.
	in := testAccount{Owner: "A", Currency: "GALAXY_GOLD"}
	got, err = Model[testAccount]().Parse(&in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestModel_Violations(t *testing.T) {
	_, err := Model[testAccount]().Parse(map[string]any{"currency": "EURO", "balance": -1})
	verr := validationError(t, err)

	assert.ElementsMatch(t, []Violation{
		{Path: "owner", Message: "required"},
		{Path: "currency", Message: "must be one of: COSMIC_COINS GALAXY_GOLD"},
		{Path: "balance", Message: "must be at least 0"},
	}, verr.Violations)
	assert.Contains(t, verr.Value, `"currency": "EURO"`)
	assert.Contains(t, verr.Error(), "owner: required")
}

func TestModel_TypeMismatch(t *testing.T) {
	_, err := Model[testAccount]().Parse(map[string]any{"owner": "A", "currency": "COSMIC_COINS", "balance": "lots"})
	verr := validationError(t, err)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, "balance", verr.Violations[0].Path)
	assert.Equal(t, "expected float64, got string", verr.Violations[0].Message)
}

func TestList(t *testing.T) {
	got, err := List[testAccount]().Parse([]any{
		map[string]any{"owner": "A", "currency": "COSMIC_COINS"},
	})
	require.NoError(t, err)
	assert.Equal(t, []testAccount{{Owner: "A", Currency: "COSMIC_COINS"}}, got)

	_, err = List[testAccount]().Parse([]any{
		map[string]any{"owner": "A", "currency": "COSMIC_COINS"},
		map[string]any{"currency": "COSMIC_COINS"},
	})
	verr := validationError(t, err)
	assert.Equal(t, []Violation{{Path: "[1].owner", Message: "required"}}, verr.Violations)
}

func TestScalarAndNullable(t *testing.T) {
	cursor := Nullable(Scalar[string]())

	got, err := cursor.Parse(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = cursor.Parse("c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got)

	_, err = Scalar[string]().Parse(float64(3))
	validationError(t, err)
}

func TestMarkerSchemas(t *testing.T) {
	got, err := Any.Parse(map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1}, got)

	got, err = NoContent.Parse("ignored")
	require.NoError(t, err)
	assert.Nil(t, got)
}
