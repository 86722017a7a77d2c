package criteria

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T, value string) func() time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return func() time.Time { return parsed.UTC() }
}

func newMandateCheck(payload json.RawMessage, now func() time.Time) *MandateCheck {
	m := NewMandateCheck(&fakeGenerator{payload: payload}, "model-x", nil)
	m.now = now
	return m
}

func TestMandateValidWithinTerm(t *testing.T) {
	m := newMandateCheck(json.RawMessage(
		`{"election_date": "15 de março de 2024", "mandate_duration": "4 (quatro) anos"}`),
		fixedNow(t, "2026-08-28"))

	v := m.Verify(context.Background(), "ata ...", "estatuto ...")
	assert.True(t, v.Valid)
	assert.Equal(t, "2028-03-15", v.ExpiryDate.Format("2006-01-02"))
	assert.Contains(t, v.Justification, "2028-03-15")
}

func TestMandateExpired(t *testing.T) {
	m := newMandateCheck(json.RawMessage(
		`{"election_date": "15 de março de 2024", "mandate_duration": "4 anos"}`),
		fixedNow(t, "2028-03-16"))

	v := m.Verify(context.Background(), "ata ...", "estatuto ...")
	assert.False(t, v.Valid)
	assert.Contains(t, v.Justification, "2028-03-15", "justification must name the expiry date")
}

func TestMandateFailsClosedWithoutDigit(t *testing.T) {
	m := newMandateCheck(json.RawMessage(
		`{"election_date": "15 de março de 2024", "mandate_duration": "alguns anos"}`),
		fixedNow(t, "2024-06-01"))

	v := m.Verify(context.Background(), "ata ...", "estatuto ...")
	assert.False(t, v.Valid, "a duration with no number is a hard failure, never zero years")
}

func TestMandateFailsClosedOnMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing date":     `{"election_date": null, "mandate_duration": "4 anos"}`,
		"missing duration": `{"election_date": "15 de março de 2024", "mandate_duration": null}`,
		"both missing":     `{"election_date": null, "mandate_duration": null}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			m := newMandateCheck(json.RawMessage(payload), fixedNow(t, "2024-06-01"))
			v := m.Verify(context.Background(), "ata ...", "estatuto ...")
			assert.False(t, v.Valid)
		})
	}
}

func TestMandateUnparsableDateFailsClosed(t *testing.T) {
	m := newMandateCheck(json.RawMessage(
		`{"election_date": "algum dia de 2024", "mandate_duration": "4 anos"}`),
		fixedNow(t, "2024-06-01"))

	v := m.Verify(context.Background(), "ata ...", "estatuto ...")
	assert.False(t, v.Valid)
}

func TestParsePortugueseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"15 de março de 2024", "2024-03-15"},
		{"15 de marco de 2024", "2024-03-15"},
		{"1 de janeiro de 2020", "2020-01-01"},
		{"Eleição realizada em 03 de outubro de 2023.", "2023-10-03"},
		{"15/03/2024", "2024-03-15"},
		{"2024-03-15", "2024-03-15"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePortugueseDate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Format("2006-01-02"))
		})
	}
}

func TestParsePortugueseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "sem data", "32 de janeiro de 2024", "15 de framboesa de 2024"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePortugueseDate(in)
			require.Error(t, err)
		})
	}
}

func TestFirstInteger(t *testing.T) {
	n, ok := firstInteger("4 (quatro) anos")
	require.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = firstInteger("mandato de 02 anos")
	require.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = firstInteger("alguns anos")
	assert.False(t, ok)
}
