package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
		ok   bool
	}{
		{"5000", Amount(500000), true},
		{"5000.00", Amount(500000), true},
		{"5000.5", Amount(500050), true},
		{"5000.55", Amount(500055), true},
		{"0.01", Amount(1), true},
		{"-150.25", Amount(-15025), true},
		{"", 0, false},
		{"abc", 0, false},
		{"10.005", 0, false},
		{"10.", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "5000.00", MustParse("5000").String())
	assert.Equal(t, "5000.55", MustParse("5000.55").String())
	assert.Equal(t, "0.05", MustParse("0.05").String())
	assert.Equal(t, "-150.25", MustParse("-150.25").String())
}

func TestArithmetic(t *testing.T) {
	rent := MustParse("6000")
	deposit := MustParse("12000.50")

	assert.Equal(t, MustParse("18000.50"), rent.Add(deposit))
	assert.Equal(t, MustParse("72000"), rent.MulMonths(12))
	assert.True(t, rent.IsPositive())
	assert.False(t, rent.IsNegative())
	assert.True(t, MustParse("-1").IsNegative())
}

func TestSQLRoundTrip(t *testing.T) {
	rent := MustParse("6000.75")

	v, err := rent.Value()
	require.NoError(t, err)

	var scanned Amount
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, rent, scanned)

	// NUMERIC columns commonly arrive as []byte.
	var fromBytes Amount
	require.NoError(t, fromBytes.Scan([]byte("6000.75")))
	assert.Equal(t, rent, fromBytes)
}

func TestJSONRoundTrip(t *testing.T) {
	rent := MustParse("6000.75")

	raw, err := json.Marshal(rent)
	require.NoError(t, err)
	assert.Equal(t, `"6000.75"`, string(raw))

	var back Amount
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, rent, back)
}
