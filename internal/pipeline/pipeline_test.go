package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"areagroup/internal/config"
	"areagroup/internal/logger"
	"areagroup/internal/models"
)

const header = "First Name,Last Name,Gender,Phone Number,ID,EyeColor\n"

func writeInput(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+body), 0o644))

	return path
}

func newPipeline(t *testing.T, cfg *config.Config) (*Pipeline, *Collector) {
	t.Helper()

	sink := &Collector{}

	p, err := New(cfg, sink, nil)
	require.NoError(t, err)

	return p, sink
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want error
	}{
		{"nil config", nil, config.ErrMissingInputPath},
		{"missing input", &config.Config{Type: "json"}, config.ErrMissingInputPath},
		{"bad type", &config.Config{Input: "users.csv", Type: "blah"}, config.ErrInvalidOutputFormat},
		{"unknown field", &config.Config{Input: "users.csv", Search: map[string][]string{"Age": {"3"}}}, config.ErrUnknownSearchField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg, nil, nil)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_DefaultsOutputFromType(t *testing.T) {
	p, err := New(&config.Config{Input: "users.csv", Type: "xml"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "./output.xml", p.OutputPath())
	assert.Equal(t, StateIdle, p.State())
}

func TestRun_GroupsRecords(t *testing.T) {
	input := writeInput(t,
		"Joe,Shmoe,male,(555) 123-4567,1,brown\n"+
			"Ann,Lee,female,555.987.6543,2,blue\n"+
			"Kim,Park,female,,3,green\n"+
			"Bob,Ray,male,+1 (212) 555-0100,4,grey\n")
	output := filepath.Join(t.TempDir(), "out.json")

	p, sink := newPipeline(t, &config.Config{Input: input, Output: output})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())

	assert.Equal(t, 4, res.RowsRead)
	assert.Equal(t, 4, res.Accepted)
	assert.Equal(t, "json", res.Format)
	assert.Equal(t, output, res.Output)

	require.Len(t, res.Tree, 3)
	assert.Len(t, res.Tree["AreaCode_555"], 2)
	assert.Contains(t, res.Tree["AreaCode_212"], models.RecordKey("User_4"))
	assert.Contains(t, res.Tree[models.NoAreaCode], models.RecordKey("User_3"))

	require.Len(t, sink.Warnings(), 1)
	assert.True(t, strings.HasPrefix(sink.Messages()[0], "Phone Number not set: "))

	onDisk, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, res.Text, string(onDisk))

	var back models.OutputTree
	require.NoError(t, json.Unmarshal(onDisk, &back))
	assert.Equal(t, res.Tree, back)
}

func TestRun_Filters(t *testing.T) {
	input := writeInput(t,
		"Joe,Shmoe,male,(555) 123-4567,1,brown\n"+
			"Jane,Shmoe,female,(555) 123-4568,2,brown\n"+
			"Joe,Blow,male,(555) 123-4569,3,brown\n")

	p, _ := newPipeline(t, &config.Config{
		Input:  input,
		Output: filepath.Join(t.TempDir(), "out.json"),
		Search: map[string][]string{"LastName": {"Shmoe"}, "FirstName": {"Joe"}},
	})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 2, res.Filtered)
	require.Equal(t, 1, res.Tree.Len())
	assert.Equal(t, "Shmoe", res.Tree["AreaCode_555"]["User_1"]["LastName"])
}

func TestRun_Duplicates(t *testing.T) {
	input := writeInput(t,
		"Joe,Shmoe,male,(555) 123-4567,1,brown\n"+
			"Jim,Shmoe,male,(555) 765-4321,1,blue\n")

	p, sink := newPipeline(t, &config.Config{Input: input, Output: filepath.Join(t.TempDir(), "out.json")})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, "Joe", res.Tree["AreaCode_555"]["User_1"]["FirstName"])
	assert.Equal(t, []string{"Duplicate ID found: 1. (Record will not be output.)"}, sink.Messages())
}

func TestRun_XML(t *testing.T) {
	input := writeInput(t, "Joe,Shmoe,male,(555) 123-4567,1,brown\n")
	output := filepath.Join(t.TempDir(), "out.xml")

	p, _ := newPipeline(t, &config.Config{Input: input, Output: output, Type: "xml"})

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Text, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, res.Text, "<AreaCode_555>")
	assert.Contains(t, res.Text, "<User_1>")
	assert.Contains(t, res.Text, "<FirstName>Joe</FirstName>")
}

func TestRun_XMLUnusualKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "id with space and markup",
			input: header + "Joe,Shmoe,male,(555) 123-4567,1 2,brown\nAnn,Lee,female,(555) 987-6543,a&b,blue\n",
			want:  []string{`<User_1_2 key="User_1 2">`, `<User_a_b key="User_a&amp;b">`},
		},
		{
			name:  "empty header cell",
			input: "First Name,Last Name,Gender,Phone Number,ID,\nJoe,Shmoe,male,(555) 123-4567,1,extra\n",
			want:  []string{`<User_1>`, `<_ key="">extra</_>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := filepath.Join(t.TempDir(), "users.csv")
			require.NoError(t, os.WriteFile(input, []byte(tt.input), 0o644))

			output := filepath.Join(t.TempDir(), "out.xml")
			p, _ := newPipeline(t, &config.Config{Input: input, Output: output, Type: "xml"})

			res, err := p.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StateDone, p.State())

			for _, w := range tt.want {
				assert.Contains(t, res.Text, w)
			}

			dec := xml.NewDecoder(strings.NewReader(res.Text))
			for {
				_, err := dec.Token()
				if err == io.EOF {
					break
				}

				require.NoError(t, err, res.Text)
			}
		})
	}
}

func TestRun_MissingInputFails(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.json")

	var logs bytes.Buffer

	p, err := New(&config.Config{Input: filepath.Join(t.TempDir(), "missing.csv"), Output: output}, nil, logger.NewLoggerTo(&logs, "info"))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, StateFailed, p.State())
	assert.Contains(t, logs.String(), "Run failed")

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_DebugLogsHeader(t *testing.T) {
	input := writeInput(t, "Joe,Shmoe,male,(555) 123-4567,1,brown\n")

	var logs bytes.Buffer

	p, err := New(&config.Config{Input: input, Output: filepath.Join(t.TempDir(), "out.json")}, nil, logger.NewLoggerTo(&logs, "debug"))
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)

	assert.Contains(t, logs.String(), "msg=\"Header read\"")
	assert.Contains(t, logs.String(), "Phone Number")
}

func TestRun_Cancelled(t *testing.T) {
	input := writeInput(t, "Joe,Shmoe,male,(555) 123-4567,1,brown\n")
	output := filepath.Join(t.TempDir(), "out.json")

	p, _ := newPipeline(t, &config.Config{Input: input, Output: output})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, p.State())
}

func TestRun_OnlyOnce(t *testing.T) {
	input := writeInput(t, "")

	p, _ := newPipeline(t, &config.Config{Input: input, Output: filepath.Join(t.TempDir(), "out.json")})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{}\n", res.Text)

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer

	sink := LogSink(logger.NewLoggerTo(&buf, "info"))
	sink.Warn(models.Warning{Kind: models.WarningDuplicateID, Field: "ID", Message: "Duplicate ID found: 1. (Record will not be output.)"})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "kind=duplicate_id")
	assert.Contains(t, out, "field=ID")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "reading", StateReading.String())
	assert.Equal(t, "serializing", StateSerializing.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
