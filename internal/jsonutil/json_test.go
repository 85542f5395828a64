package jsonutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalKeepsAngleBrackets(t *testing.T) {
	b, err := Marshal(map[string]string{"alt": "<NON_REF>"})
	require.NoError(t, err)
	require.Equal(t, `{"alt":"<NON_REF>"}`, string(b))
}

func TestEncodePretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePretty(&buf, []byte(`{"a":1,"b":[2]}`)))
	require.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    2\n  ]\n}\n", buf.String())
	require.Error(t, EncodePretty(&buf, []byte(`{"a":`)))
}
