package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

const ueLog = `mcs=9
12:00:00.500 [IP] DL 10.0.0.1:40000 > 10.0.0.2:5201
0000: 4500 05da 0001 4000 4011 0000 0a00 0001
0010: 0a00 0002 9c40 1451 05c6 1234
0020: 5f5e 1000 0000 0001
12:00:01.250 [IP] DL 10.0.0.1:40000 > 10.0.0.2:5201
0000: 4500 05da 0002 4000 4011 0000 0a00 0001
12:00:02.000 [IP] DL 10.0.0.1:40001 > 10.0.0.2:5202
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractAndSummary(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "ue0.log", ueLog)
	desc := writeFile(t, dir, "request.json",
		`{"id": "exp-1", "commands": [{"command": "iperf -c 10.0.0.2 -u -b 16M -p 5201"}]}`)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "extract", "-o", outDir, "-d", desc, "-l", logPath)
	require.NoError(t, err)
	csvPath := filepath.Join(outDir, "exp-1.csv")
	assert.Contains(t, out, "Data saved to "+csvPath+" (3 records)")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Timestamp_log,Source IP,Destination IP,IP_ID_hex"))

	out, err = execute(t, "summary", "--csv", csvPath, "--descriptor", desc, "--charts=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Number of users: 2")
	assert.Contains(t, out, "Requested: 2.00 MBps")
	assert.NotContains(t, out, "chart(s) saved")
}

func TestExtractInspectNDJSON(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "ue0.log", ueLog)
	desc := writeFile(t, dir, "request.yaml", "id: exp-2\n")
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "extract", "-o", outDir, "-d", desc, "-l", logPath, "--sink", "ndjson", "--inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "exp-2.ndjson")

	data, err := os.ReadFile(filepath.Join(outDir, "exp-2.ndjson"))
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	assert.Contains(t, first, `"IP_Version":"4"`)
	assert.Contains(t, first, `"IP_TTL":"64"`)
}

func TestExtractErrors(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "ue0.log", ueLog)
	good := writeFile(t, dir, "request.json", `{"id": "exp-1"}`)
	bad := writeFile(t, dir, "broken.json", `{"id":`)

	_, err := execute(t, "extract", "-o", dir, "-d", bad, "-l", logPath)
	assert.ErrorIs(t, err, core.ErrDescriptorInvalid)

	_, err = execute(t, "extract", "-o", dir, "-d", good, "-l", filepath.Join(dir, "absent.log"))
	assert.ErrorIs(t, err, core.ErrInputUnreadable)

	_, err = execute(t, "extract", "-o", dir, "-d", good, "-l", logPath, "--sink", "kafka")
	assert.ErrorIs(t, err, core.ErrSinkNotFound)

	_, err = execute(t, "extract", "-o", dir)
	assert.Error(t, err)
}

func TestConfigFileAndLogLevel(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "ue0.log", ueLog)
	desc := writeFile(t, dir, "request.json", `{"id": "exp-3"}`)
	outDir := filepath.Join(dir, "from-config")
	cfgPath := writeFile(t, dir, "amarilog.yml",
		"amarilog:\n  input:\n    log_file: "+logPath+"\n  output:\n    dir: "+outDir+"\n")

	_, err := execute(t, "-c", cfgPath, "--log-level", "debug", "extract", "-d", desc)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "exp-3.csv"))

	_, err = execute(t, "--log-level", "verbose", "validate", "-d", desc)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestSplitAndDedupe(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "enb.log", "trace 1\n{\"a\": 1}\ntrace 2\n{\"a\": 1}\n")
	trace := filepath.Join(dir, "trace.log")
	blobs := filepath.Join(dir, "blobs.json")

	out, err := execute(t, "split", in, trace, blobs)
	require.NoError(t, err)
	assert.Contains(t, out, "2 JSON blob(s)")

	arr := writeFile(t, dir, "arr.json", `[{"a": 1, "b": 2}, {"b": 2, "a": 1}]`)
	out, err = execute(t, "dedupe", arr)
	require.NoError(t, err)
	assert.Contains(t, out, "Of 2 original objects, 1 unique remain.")

	_, err = execute(t, "dedupe", blobs)
	assert.ErrorIs(t, err, core.ErrNotJSONArray)

	_, err = execute(t, "split", in)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	desc := writeFile(t, dir, "request.json",
		`{"id": 12, "commands": [{"command": "iperf -b 8M -p 5201"}, {"command": "sleep 3"}]}`)

	out, err := execute(t, "validate", "-d", desc)
	require.NoError(t, err)
	assert.Contains(t, out, `VALID: descriptor id "12", 2 command(s), 1 iperf rate(s)`)

	noID := writeFile(t, dir, "noid.json", `{}`)
	out, err = execute(t, "validate", "-d", noID)
	require.NoError(t, err)
	assert.Contains(t, out, "WARNING")

	_, err = execute(t, "validate", "-d", filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, core.ErrDescriptorInvalid)
}

func TestSummaryNoUserPorts(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "exp-9.csv", "Timestamp_log,Destination Port\n12:00:00.000,80\n")

	out, err := execute(t, "summary", "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no user ports 5200-5299 found")
}
