package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPreservesKeyOrder(t *testing.T) {
	input := `{"zeta":1,"file_url":"http://a/f.bin","alpha":{"nested":[1,2,3]},"file_id":"f.bin","local_path":"/x"}`

	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(input), rec))
	assert.Equal(t, []string{"zeta", "file_url", "alpha", "file_id", "local_path"}, rec.Keys())

	rec.SetString(ResultField, AnnotationTransferred)
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"zeta":1,"file_url":"http://a/f.bin","alpha":{"nested":[1,2,3]},"file_id":"f.bin","local_path":"/x","transfer_service":"TRANSFERRED"}`,
		string(out))
}

func TestRecordBatchRoundTrip(t *testing.T) {
	var batch []*Record
	require.NoError(t, json.Unmarshal([]byte(`[{"b":1,"a":2},{"a":"x"}]`), &batch))
	require.Len(t, batch, 2)

	out, err := json.Marshal(batch)
	require.NoError(t, err)
	assert.Equal(t, `[{"b":1,"a":2},{"a":"x"}]`, string(out))
}

func TestRecordRejectsNonObjects(t *testing.T) {
	for _, input := range []string{`[]`, `"text"`, `42`, `{"a":`} {
		rec := NewRecord()
		assert.Error(t, json.Unmarshal([]byte(input), rec), input)
	}
}

func TestRecordString(t *testing.T) {
	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{"s":"v","n":3,"z":null}`), rec))

	v, present, err := rec.String("s")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "v", v)

	_, present, err = rec.String("n")
	assert.True(t, present)
	assert.Error(t, err)

	_, present, err = rec.String("z")
	assert.False(t, present)
	assert.NoError(t, err)

	_, present, err = rec.String("missing")
	assert.False(t, present)
	assert.NoError(t, err)
}

func TestRecordSetStringReplacesInPlace(t *testing.T) {
	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"transfer_service":"old","b":2}`), rec))

	rec.SetString(ResultField, "ERROR: boom")
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"transfer_service":"ERROR: boom","b":2}`, string(out))
}

func TestFieldMappingResolve(t *testing.T) {
	m := DefaultFieldMapping()

	tests := []struct {
		name    string
		input   string
		want    Job
		wantErr bool
	}{
		{
			name:  "all fields",
			input: `{"file_url":"http://a/f.bin","file_id":"f.bin","local_path":"/x","content_type":"image/png"}`,
			want:  Job{SourceURL: "http://a/f.bin", FileName: "f.bin", TargetPath: "/x", ContentType: "image/png"},
		},
		{
			name:  "content type optional",
			input: `{"file_url":"https://a/f.bin","file_id":"f.bin","local_path":"/x","content_type":null}`,
			want:  Job{SourceURL: "https://a/f.bin", FileName: "f.bin", TargetPath: "/x"},
		},
		{name: "missing url", input: `{"file_id":"f.bin","local_path":"/x"}`, wantErr: true},
		{name: "missing target", input: `{"file_url":"http://a/f.bin","file_id":"f.bin"}`, wantErr: true},
		{name: "empty name", input: `{"file_url":"http://a/f.bin","file_id":"","local_path":"/x"}`, wantErr: true},
		{name: "numeric name", input: `{"file_url":"http://a/f.bin","file_id":7,"local_path":"/x"}`, wantErr: true},
		{name: "relative url", input: `{"file_url":"/f.bin","file_id":"f.bin","local_path":"/x"}`, wantErr: true},
		{name: "unsupported scheme", input: `{"file_url":"ftp://a/f.bin","file_id":"f.bin","local_path":"/x"}`, wantErr: true},
		{name: "bad content type", input: `{"file_url":"http://a/f.bin","file_id":"f.bin","local_path":"/x","content_type":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecord()
			require.NoError(t, json.Unmarshal([]byte(tt.input), rec))

			job, err := m.Resolve(rec)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidJob), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, job)
		})
	}
}

func TestFieldMappingCustomKeys(t *testing.T) {
	m := FieldMapping{SourceURL: "src", FileName: "name", TargetPath: "dest", ContentType: "mime"}
	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{"src":"http://a/f","name":"f","dest":"d","mime":"text/plain"}`), rec))

	job, err := m.Resolve(rec)
	require.NoError(t, err)
	assert.Equal(t, Job{SourceURL: "http://a/f", FileName: "f", TargetPath: "d", ContentType: "text/plain"}, job)
}

func TestOutcomeAnnotation(t *testing.T) {
	assert.Equal(t, "TRANSFERRED", Outcome{}.Annotation())
	assert.True(t, Outcome{}.OK())

	o := Outcome{Err: errors.New("boom")}
	assert.False(t, o.OK())
	assert.Equal(t, "ERROR: boom", o.Annotation())
}
