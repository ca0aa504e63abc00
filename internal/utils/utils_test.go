package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCardNumber(t *testing.T) {
	number, err := NormalizeCardNumber("4111 1111 1111 1111")
	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", number)

	_, err = NormalizeCardNumber("4111 1111 1111 1112")
	assert.ErrorIs(t, err, ErrCardNumberLuhn)

	_, err = NormalizeCardNumber("4111 1111 1111")
	assert.ErrorIs(t, err, ErrCardNumberFormat)

	_, err = NormalizeCardNumber("4111a11111111111")
	assert.ErrorIs(t, err, ErrCardNumberFormat)
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "**** **** **** 1111", MaskCardNumber("4111111111111111"))
	assert.Equal(t, "**** **** **** ****", MaskCardNumber("111"))
}

func TestParseExpiry(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	month, year, err := ParseExpiry("04/26", now)
	require.NoError(t, err)
	assert.Equal(t, 4, month)
	assert.Equal(t, 2026, year)

	month, year, err = ParseExpiry("1230", now)
	require.NoError(t, err)
	assert.Equal(t, 12, month)
	assert.Equal(t, 2030, year)

	_, _, err = ParseExpiry("03/26", now)
	assert.ErrorIs(t, err, ErrExpiryPast)

	_, _, err = ParseExpiry("13/27", now)
	assert.ErrorIs(t, err, ErrExpiryFormat)

	for _, raw := range []string{"1/27", "+130", "-1/30", "12/3x", "1/230", "12//30"} {
		_, _, err = ParseExpiry(raw, now)
		assert.ErrorIs(t, err, ErrExpiryFormat, raw)
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Ali Valiev", SanitizeText("  <b>Ali</b> Valiev "))
	assert.Equal(t, "O'Brien & Sons", SanitizeText("O'Brien & Sons"))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", 42, time.Hour)
	require.NoError(t, err)

	id, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = ParseToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", 42, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cretpass"))
	assert.False(t, CheckPassword(hash, "wrong"))

	_, err = HashPassword(string(make([]byte, 73)))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 12, Offset: 0}, got)

	_, err = app.Test(httptest.NewRequest("GET", "/?page=3&page_size=500", nil))
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 3, Limit: 100, Offset: 200}, got)

	assert.EqualValues(t, 3, got.Meta(201)["total_pages"])
}
