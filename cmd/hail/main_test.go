package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/hail/bridge"
	"github.com/wippyai/hail/compare"
	"github.com/wippyai/hail/types"
	"github.com/wippyai/hail/value"
)

const recordSpec = "struct{id: int32, tags: array<str>}"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hail", cmd.Use)
	assert.Contains(t, cmd.Long, "wire format")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"resolve", "encode", "decode", "compare", "hash", "repl"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	schema := cmd.PersistentFlags().Lookup("schema")
	require.NotNil(t, schema)
	assert.Equal(t, "", schema.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("nulls-last"))
}

func TestResolve(t *testing.T) {
	out, err := execute(t, "", "resolve", "struct{tags: array<string>, id: int32}")
	require.NoError(t, err)
	assert.Equal(t, "struct{tags: array<str>, id: int32}\n", out)

	out, err = execute(t, "", "resolve", "--info", "int64")
	require.NoError(t, err)
	assert.Contains(t, out, "min size: 8")

	_, err = execute(t, "", "resolve", "array<")
	require.Error(t, err)
	assert.Equal(t, bridge.StatusMalformedTypeSpec, bridge.Code(err))
}

func TestEncodeDecode(t *testing.T) {
	out, err := execute(t, "", "encode", recordSpec, `{"id": 7, "tags": ["a", "bb"]}`)
	require.NoError(t, err)
	assert.Equal(t, "0107000000020161026262\n", out)

	out, err = execute(t, "", "decode", recordSpec, "01 07000000 02 0161 026262")
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"tags":["a","bb"]}`+"\n", out)

	out, err = execute(t, "0107000000020161026262\n", "decode", recordSpec, "-")
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"tags":["a","bb"]}`+"\n", out)
}

func TestEncode_Int64Precision(t *testing.T) {
	out, err := execute(t, "", "encode", "int64", "9007199254740993")
	require.NoError(t, err)
	assert.Equal(t, "010100000000002000\n", out)
}

func TestDecode_Errors(t *testing.T) {
	_, err := execute(t, "", "decode", recordSpec, "0107")
	require.Error(t, err)
	assert.Equal(t, bridge.StatusTruncatedBuffer, bridge.Code(err))

	_, err = execute(t, "", "decode", "int32", "zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse hex")

	_, err = execute(t, "", "encode", "int32", `"seven"`)
	assert.Equal(t, bridge.StatusTypeMismatch, bridge.Code(err))

	_, err = execute(t, "", "encode", "int32", `1 2`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")
}

func TestDecode_NonFiniteFloats(t *testing.T) {
	out, err := execute(t, "", "decode", "array<float64>", "01 02 000000000000f87f 000000000000f0ff")
	require.NoError(t, err)
	assert.Equal(t, `["NaN","-Inf"]`+"\n", out)

	out, err = execute(t, "", "encode", "array<float64>", `["NaN","-Inf"]`)
	require.NoError(t, err)
	assert.Equal(t, "0102000000000000f87f000000000000f0ff\n", out)
}

func TestCompare(t *testing.T) {
	out, err := execute(t, "", "compare", "nullable<int32>", "null", "1")
	require.NoError(t, err)
	assert.Equal(t, "LT\n", out)

	out, err = execute(t, "", "--nulls-last", "compare", "nullable<int32>", "null", "1")
	require.NoError(t, err)
	assert.Equal(t, "GT\n", out)

	out, err = execute(t, "", "compare", recordSpec, `{"id":1,"tags":[]}`, `{"id":1,"tags":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "EQ\n", out)
}

func TestHash(t *testing.T) {
	out, err := execute(t, "", "hash", "str", `"hello"`)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%016x\n", compare.Hash(value.String("hello"))), out)
}

func TestSchemaFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("types:\n  point:\n    x: float64\n    y: float64\n"), 0o600))

	out, err := execute(t, "", "--schema", path, "resolve", "array<point>")
	require.NoError(t, err)
	assert.Equal(t, "array<struct{x: float64, y: float64}>\n", out)

	_, err = execute(t, "", "--schema", filepath.Join(t.TempDir(), "missing.yaml"), "resolve", "int32")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open schema")
}

func TestRepl_LineMode(t *testing.T) {
	script := strings.Join([]string{
		":type " + recordSpec,
		`{"id": 7, "tags": ["a", "bb"]}`,
		":project tags[1]",
		`:compare {"id": 8, "tags": []}`,
		":bogus",
		":quit",
		":type int32",
	}, "\n")

	out, err := execute(t, script, "repl")
	require.NoError(t, err)
	assert.Contains(t, out, recordSpec)
	assert.Contains(t, out, `{id: 7, tags: ["a", "bb"]}`)
	assert.Contains(t, out, "hex:  0107000000020161026262")
	assert.Contains(t, out, `"bb" : str`)
	assert.Contains(t, out, "LT")
	assert.Contains(t, out, "Error: unknown command :bogus")
	assert.NotContains(t, out, "\nint32\n")
}

func TestSession(t *testing.T) {
	b := bridge.New(bridge.WithRegistry(types.NewRegistry()))
	defer b.Close()
	sess := newSession(b, &RootOptions{})

	_, err := sess.eval("5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no type set")

	_, err = sess.eval(":project x")
	require.Error(t, err)

	out, err := sess.eval(":type int32")
	require.NoError(t, err)
	assert.Equal(t, "int32", out)

	out, err = sess.eval(":decode 0105000000")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "5\n"))

	_, err = sess.eval(":project x")
	assert.Equal(t, bridge.StatusTypeMismatch, bridge.Code(err))

	out, err = sess.eval("")
	require.NoError(t, err)
	assert.Empty(t, out)

	// the type and one value are owned by the session
	assert.Equal(t, 2, b.Live())
	_, err = sess.eval(":type bool")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Live())

	sess.close()
	assert.Equal(t, 0, b.Live())
}

func TestReplModel(t *testing.T) {
	b := bridge.New()
	defer b.Close()
	sess := newSession(b, &RootOptions{})
	defer sess.close()

	m := newReplModel(sess, newReplStyles(false))
	m.input.SetValue(":type bool")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	require.Len(t, m.history, 1)
	assert.Equal(t, "bool", m.history[0].output)
	assert.Empty(t, m.input.Value())

	m.input.SetValue("maybe")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.history, 2)
	assert.Error(t, m.history[1].err)

	view := m.View()
	assert.Contains(t, view, "hail bool")
	assert.Contains(t, view, "> :type bool")
	assert.Contains(t, view, "Error: parse json")

	m.input.SetValue(":q")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
