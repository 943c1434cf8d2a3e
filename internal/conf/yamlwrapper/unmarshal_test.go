package yamlwrapper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name    string   `json:"name"`
	Items   []string `json:"items"`
	Enabled bool     `json:"enabled"`
}

func TestUnmarshal(t *testing.T) {
	var s testStruct
	err := Unmarshal([]byte("name: test\nitems: [a, b]\nenabled: yes\n"), &s)
	require.NoError(t, err)
	require.Equal(t, testStruct{Name: "test", Items: []string{"a", "b"}, Enabled: true}, s)
}

func TestUnmarshalEmpty(t *testing.T) {
	s := testStruct{Name: "default"}
	err := Unmarshal([]byte(""), &s)
	require.NoError(t, err)
	require.Equal(t, "default", s.Name)
}

func TestUnmarshalErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		buf  string
		err  string
	}{
		{
			"integer key",
			"1: value\nname: test\n",
			"non-string keys are not supported (1)",
		},
		{
			"unknown field",
			"name: test\nother: value\n",
			"json: unknown field \"other\"",
		},
		{
			"null slice",
			"items: null\n",
			"cannot set slice 'items' to nil",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var s testStruct
			err := Unmarshal([]byte(ca.buf), &s)
			require.EqualError(t, err, ca.err)
		})
	}
}
