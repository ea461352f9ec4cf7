package ui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	apperrors "songdwh/pkg/errors"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	originalSupportsColor := supportsColor
	supportsColor = false
	t.Cleanup(func() {
		restore()
		supportsColor = originalSupportsColor
	})
	return &buf
}

func TestColorFunc(t *testing.T) {
	originalSupportsColor := supportsColor
	defer func() {
		supportsColor = originalSupportsColor
	}()

	tests := []struct {
		name          string
		supportsColor bool
		expectColored bool
	}{
		{"with color support", true, true},
		{"without color support", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			supportsColor = tt.supportsColor
			result := ColorSuccess("test text")

			hasEscape := strings.Contains(result, "\x1b[")
			if hasEscape != tt.expectColored {
				t.Errorf("colored = %v, want %v (got %q)", hasEscape, tt.expectColored, result)
			}
			if !strings.Contains(result, "test text") {
				t.Errorf("result %q lost the input text", result)
			}
		})
	}
}

func TestShowHeader(t *testing.T) {
	buf := captureOutput(t)

	ShowHeader("Create Tables")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if len(lines[0]) != len(lines[1]) || len(lines[1]) != len(lines[2]) {
		t.Errorf("header box is ragged:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "Create Tables") {
		t.Errorf("title missing: %q", lines[1])
	}
}

func TestShowHeaderLongTitle(t *testing.T) {
	buf := captureOutput(t)

	ShowHeader(strings.Repeat("x", 60))

	if !strings.Contains(buf.String(), strings.Repeat("x", 60)) {
		t.Errorf("long title truncated: %q", buf.String())
	}
}

func TestShowMessages(t *testing.T) {
	buf := captureOutput(t)

	ShowSuccess("7 tables created")
	ShowWarning("staging_songs is empty")
	ShowInfo("loading staging tables")

	out := buf.String()
	for _, want := range []string{
		"SUCCESS: 7 tables created",
		"WARNING: staging_songs is empty",
		"INFO: loading staging tables",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShowErrorAppErrorChain(t *testing.T) {
	buf := captureOutput(t)

	cause := apperrors.SQLError("Failed to execute copy staging_events", "COPY staging_events ...",
		fmt.Errorf("Load into table 'staging_events' failed. Check 'stl_load_errors' system table for details."))
	err := apperrors.Wrap(cause, apperrors.ErrCodeStagingFailed, "load-staging failed at copy staging_events").
		WithSuggestions("Query stl_load_errors for the rejected rows")

	ShowError(err)

	out := buf.String()
	if !strings.Contains(out, "ERROR: [DWH4006] load-staging failed at copy staging_events") {
		t.Errorf("missing top line:\n%s", out)
	}
	if !strings.Contains(out, "[DWH4001] Failed to execute copy staging_events") {
		t.Errorf("missing inner layer:\n%s", out)
	}
	if !strings.Contains(out, "stl_load_errors' system table") {
		t.Errorf("missing warehouse message:\n%s", out)
	}
	if n := strings.Count(out, "TIP: Query stl_load_errors"); n != 1 {
		t.Errorf("expected one deduplicated tip, got %d:\n%s", n, out)
	}
}

func TestShowErrorJoined(t *testing.T) {
	buf := captureOutput(t)

	runErr := apperrors.Wrap(
		apperrors.SQLError("Failed to execute copy staging_events", "COPY staging_events ...", fmt.Errorf("S3ServiceException: Access Denied")),
		apperrors.ErrCodeStagingFailed, "load-staging failed at copy staging_events").
		WithSuggestions("Check the IAM role can read the S3 prefixes")
	closeErr := errors.New("close session: connection reset by peer")

	ShowError(errors.Join(runErr, closeErr))

	out := buf.String()
	if !strings.Contains(out, "ERROR: [DWH4006] load-staging failed at copy staging_events") {
		t.Errorf("missing run error:\n%s", out)
	}
	if !strings.Contains(out, "[DWH4001] Failed to execute copy staging_events") {
		t.Errorf("missing inner layer:\n%s", out)
	}
	if !strings.Contains(out, "close session: connection reset by peer") {
		t.Errorf("missing close error:\n%s", out)
	}
	if n := strings.Count(out, "ERROR:"); n != 2 {
		t.Errorf("expected one ERROR block per member, got %d:\n%s", n, out)
	}
	if n := strings.Count(out, "TIP: Check the IAM role"); n != 1 {
		t.Errorf("expected the suggestion once, got %d:\n%s", n, out)
	}
}

func TestShowErrorWrappedAppError(t *testing.T) {
	buf := captureOutput(t)

	appErr := apperrors.New(apperrors.ErrCodeConfigMissing, "CLUSTER.HOST is required").
		WithSuggestions("Set HOST in the [CLUSTER] section")
	ShowError(fmt.Errorf("create-tables: %w", appErr))

	out := buf.String()
	if !strings.Contains(out, "ERROR: [DWH2003] CLUSTER.HOST is required") {
		t.Errorf("wrapped AppError not unwrapped:\n%s", out)
	}
	if !strings.Contains(out, "TIP: Set HOST in the [CLUSTER] section") {
		t.Errorf("missing tip:\n%s", out)
	}
}

func TestShowErrorPlain(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantTip string
	}{
		{"auth", errors.New("password authentication failed for user \"dwhuser\""), "DB_PASSWORD"},
		{"refused", errors.New("dial tcp: connection refused"), "cluster endpoint"},
		{"missing table", errors.New(`relation "staging_events" does not exist`), "create-tables"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			ShowError(tt.err)

			out := buf.String()
			if !strings.Contains(out, tt.err.Error()) {
				t.Errorf("message missing:\n%s", out)
			}
			if tt.wantTip == "" {
				if strings.Contains(out, "TIP:") {
					t.Errorf("unexpected tip:\n%s", out)
				}
				return
			}
			if !strings.Contains(out, tt.wantTip) {
				t.Errorf("tip %q missing:\n%s", tt.wantTip, out)
			}
		})
	}
}

func TestShowErrorNil(t *testing.T) {
	buf := captureOutput(t)
	ShowError(nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
