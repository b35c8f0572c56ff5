package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("test_error")
}

func TestRecordErrorDetails(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordErrorDetails panic'd")
		}
	}()

	RecordErrorDetails("push", errors.New("connection refused"))
	RecordErrorDetails("push", nil)
}

func TestPipelineRecorders(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("pipeline recorders panic'd")
		}
	}()

	RecordPush("run-1", "pushed")
	RecordMerge("run-1", 10, 7)
	RecordReportDuration("run-1", 250*time.Millisecond)
}
