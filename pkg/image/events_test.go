package image

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpreter_EchoesStreamAndFailsWithError(t *testing.T) {
	events := `{"stream":"Step 1/4 : FROM base\n"}` + "\n" +
		`{"error":"executor failed"}`

	var out bytes.Buffer
	err := NewInterpreter(&out).Consume(strings.NewReader(events))
	require.Error(t, err)
	require.Contains(t, err.Error(), "problem executing Docker")
	require.Contains(t, err.Error(), "executor failed")
	require.Contains(t, out.String(), "Step 1/4 : FROM base")
}

func TestInterpreter_AggregatesAcrossWholeStream(t *testing.T) {
	events := `{"error":"first"}` + "\n" +
		`{"stream":"still streaming"}` + "\n" +
		`{"errorDetail":{"message":"second","code":137}}`

	var out bytes.Buffer
	err := NewInterpreter(&out).Consume(strings.NewReader(events))
	require.Error(t, err)
	require.Contains(t, err.Error(), "first")
	require.Contains(t, err.Error(), "second")
	require.Contains(t, err.Error(), "Error code: 137")
	// errors are raised once at the end, the stream keeps flowing
	require.Contains(t, out.String(), "still streaming")
}

func TestInterpreter_DeduplicatesErrors(t *testing.T) {
	events := `{"error":"same"}` + "\n" + `{"error":"same"}` + "\n" +
		`{"errorDetail":{"message":"same"}}`

	err := NewInterpreter(&bytes.Buffer{}).Consume(strings.NewReader(events))
	require.Error(t, err)
	require.Equal(t, "problem executing Docker: same", err.Error())
}

func TestInterpreter_StatusAndAux(t *testing.T) {
	events := `{"status":"Pulling from acme/evm_loader"}` + "\n" +
		`{"aux":{"Digest":"sha256:abc","ID":"sha256:def"}}`

	var out bytes.Buffer
	require.NoError(t, NewInterpreter(&out).Consume(strings.NewReader(events)))
	require.Contains(t, out.String(), "Pulling from acme/evm_loader")
	require.Contains(t, out.String(), "digest: sha256:abc")
	require.Contains(t, out.String(), "ID: sha256:def")
}

func TestNormalizeStream(t *testing.T) {
	require.Equal(t, "line", normalizeStream("\nline\n"))
	require.Equal(t, "x\x1b[0m", normalizeStream("x\n\x1b[0m"))
	require.Equal(t, "", normalizeStream("\n"))
}
