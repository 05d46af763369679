package ingest

import "errors"

var (
	// ErrPipelineClosed is returned when operations are attempted on a closed pipeline.
	ErrPipelineClosed = errors.New("ingest pipeline is closed")

	// ErrPipelineRunning is returned when starting an already running pipeline.
	ErrPipelineRunning = errors.New("ingest pipeline is already running")

	// ErrPipelineNotRunning is returned when stopping a pipeline that is not running.
	ErrPipelineNotRunning = errors.New("ingest pipeline is not running")

	// ErrNoInbox is returned when no inbox directory is configured.
	ErrNoInbox = errors.New("no inbox directory configured")
)
