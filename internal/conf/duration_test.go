package conf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var casesDuration = []struct {
	name string
	dec  Duration
	enc  string
}{
	{
		"standard",
		Duration(13456 * time.Second),
		`"3h44m16s"`,
	},
	{
		"days",
		Duration(50 * 13456 * time.Second),
		`"7d18h53m20s"`,
	},
	{
		"days only",
		Duration(2 * day),
		`"2d"`,
	},
	{
		"negative",
		Duration(-90 * time.Second),
		`"-1m30s"`,
	},
	{
		"zero",
		0,
		`"0s"`,
	},
}

func TestDurationUnmarshal(t *testing.T) {
	for _, ca := range casesDuration {
		t.Run(ca.name, func(t *testing.T) {
			var dec Duration
			err := dec.UnmarshalJSON([]byte(ca.enc))
			require.NoError(t, err)
			require.Equal(t, ca.dec, dec)
		})
	}
}

func TestDurationMarshal(t *testing.T) {
	for _, ca := range casesDuration {
		t.Run(ca.name, func(t *testing.T) {
			enc, err := json.Marshal(ca.dec)
			require.NoError(t, err)
			require.Equal(t, ca.enc, string(enc))
		})
	}
}

func TestDurationUnmarshalEnv(t *testing.T) {
	var d Duration
	err := d.UnmarshalEnv("", "1d30s")
	require.NoError(t, err)
	require.Equal(t, Duration(day+30*time.Second), d)

	err = d.UnmarshalEnv("", "abc")
	require.Error(t, err)
}
