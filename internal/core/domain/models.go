package domain

import (
	"fmt"
	"net/url"
)

// Annotation written for a job that reached its destination.
const AnnotationTransferred = "TRANSFERRED"

// FieldMapping names the record keys that carry each job attribute.
type FieldMapping struct {
	SourceURL   string
	FileName    string
	TargetPath  string
	ContentType string
}

// DefaultFieldMapping returns the keys used when nothing is configured.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		SourceURL:   "file_url",
		FileName:    "file_id",
		TargetPath:  "local_path",
		ContentType: "content_type",
	}
}

// Job is the resolved view of a Record.
type Job struct {
	SourceURL   string
	FileName    string
	TargetPath  string
	ContentType string // optional
}

// Resolve extracts a Job from rec. Missing or malformed required fields
// are reported as ErrInvalidJob.
func (m FieldMapping) Resolve(rec *Record) (Job, error) {
	var job Job
	var err error

	if job.SourceURL, err = requiredString(rec, m.SourceURL); err != nil {
		return Job{}, err
	}
	if job.FileName, err = requiredString(rec, m.FileName); err != nil {
		return Job{}, err
	}
	if job.TargetPath, err = requiredString(rec, m.TargetPath); err != nil {
		return Job{}, err
	}

	ct, _, err := rec.String(m.ContentType)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	job.ContentType = ct

	u, err := url.Parse(job.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Job{}, fmt.Errorf("%w: field %q is not an absolute http(s) URL: %q", ErrInvalidJob, m.SourceURL, job.SourceURL)
	}

	return job, nil
}

func requiredString(rec *Record, key string) (string, error) {
	v, present, err := rec.String(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if !present || v == "" {
		return "", fmt.Errorf("%w: missing required field %q", ErrInvalidJob, key)
	}
	return v, nil
}

// Outcome is the result of processing one job.
type Outcome struct {
	Bytes    int64
	Checksum string
	Err      error
}

// OK reports whether the job was transferred.
func (o Outcome) OK() bool { return o.Err == nil }

// Annotation returns the value written to the record's result field.
func (o Outcome) Annotation() string {
	if o.Err == nil {
		return AnnotationTransferred
	}
	return "ERROR: " + o.Err.Error()
}

// BatchStatus is the overall result of a batch.
type BatchStatus string

const (
	StatusSuccess        BatchStatus = "success"
	StatusPartialFailure BatchStatus = "partial-failure"
)

// BatchResult holds the annotated records of one batch run.
type BatchResult struct {
	RequestID string
	Records   []*Record
	Outcomes  []Outcome
	Failed    int
	Status    BatchStatus
}
