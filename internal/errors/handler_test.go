package apperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type MockColorProvider struct{}

func (m MockColorProvider) Yellow() string { return "[YELLOW]" }
func (m MockColorProvider) Reset() string  { return "[RESET]" }

func TestHandleRunError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		err          error
		duration     time.Duration
		colors       ColorProvider
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "No Error",
			expectedCode: ExitSuccess,
		},
		{
			name:         "Timeout Error",
			err:          context.DeadlineExceeded,
			duration:     1 * time.Second,
			colors:       MockColorProvider{},
			expectedCode: ExitErrorTimeout,
			expectedMsg:  "Status: Failure (Timeout). The execution limit was reached after [YELLOW]1s[RESET].",
		},
		{
			name:         "Canceled Error",
			err:          fmt.Errorf("fields: %w", context.Canceled),
			colors:       MockColorProvider{},
			expectedCode: ExitErrorCanceled,
			expectedMsg:  "[YELLOW]Status: Canceled.[RESET]",
		},
		{
			name:         "Dataset Error",
			err:          NewDatasetError("missing.yaml", errors.New("no such file")),
			expectedCode: ExitErrorDataset,
			expectedMsg:  "Could not load the dataset: dataset missing.yaml: no such file",
		},
		{
			name:         "Config Error",
			err:          NewConfigError("bad -ngrid"),
			expectedCode: ExitErrorConfig,
			expectedMsg:  "Invalid configuration: bad -ngrid",
		},
		{
			name:         "Generic Error",
			err:          errors.New("random error"),
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "Status: Failure. An unexpected error occurred: random error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := new(bytes.Buffer)
			code := HandleRunError(tt.err, tt.duration, out, tt.colors)
			if code != tt.expectedCode {
				t.Errorf("HandleRunError() code = %v, want %v", code, tt.expectedCode)
			}
			if tt.expectedMsg != "" && !strings.Contains(out.String(), tt.expectedMsg) {
				t.Errorf("HandleRunError() output = %q, want %q", out.String(), tt.expectedMsg)
			}
		})
	}
}
