package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"songdwh/pkg/errors"
)

var (
	out io.Writer = os.Stdout

	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color functions
	ColorSuccess = colorFunc(ansi.Green)
	ColorError   = colorFunc(ansi.Red)
	ColorWarning = colorFunc(ansi.Yellow)
	ColorInfo    = colorFunc(ansi.Cyan)
	ColorBold    = colorFunc("default+b")
	ColorDim     = colorFunc("default+h")
)

// SetOutput redirects messages and tables to w. The returned func restores
// the previous writer.
func SetOutput(w io.Writer) func() {
	prev := out
	out = w
	return func() { out = prev }
}

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a formatted header
func ShowHeader(title string) {
	width := 50
	if len(title)+4 > width {
		width = len(title) + 4
	}
	padding := (width - len(title) - 2) / 2

	fmt.Fprintln(out, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(out, "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", width-2-padding-len(title)),
	)
	fmt.Fprintln(out, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays an error. An AppError chain is printed one line per
// layer with its suggestions as tips; other errors get one keyword-matched
// tip at most. Joined errors print every member, tips are shown once.
func ShowError(err error) {
	if err == nil {
		return
	}

	var tips []string
	for _, member := range splitJoined(err) {
		tips = append(tips, showOne(member)...)
	}
	for _, tip := range dedupe(tips) {
		fmt.Fprintf(out, "  %s %s\n", ColorInfo("TIP:"), tip)
	}
}

// splitJoined flattens errors.Join trees into their leaf errors
func splitJoined(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var members []error
	for _, e := range joined.Unwrap() {
		if e != nil {
			members = append(members, splitJoined(e)...)
		}
	}
	return members
}

// showOne prints a single error and returns the tips it contributes
func showOne(err error) []string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		fmt.Fprintf(out, "\n%s [%s] %s\n", ColorError("ERROR:"), appErr.Code, appErr.Message)
		suggestions := append([]string(nil), appErr.Suggestions...)

		cause := appErr.Cause
		for cause != nil {
			inner, ok := cause.(*errors.AppError)
			if !ok {
				fmt.Fprintf(out, "  %s\n", ColorDim(cause.Error()))
				break
			}
			fmt.Fprintf(out, "  %s\n", ColorDim(fmt.Sprintf("[%s] %s", inner.Code, inner.Message)))
			suggestions = append(suggestions, inner.Suggestions...)
			cause = inner.Cause
		}
		return suggestions
	}

	message := err.Error()
	fmt.Fprintf(out, "\n%s\n", ColorError("ERROR:"))
	for i, line := range strings.Split(message, "\n") {
		if i == 0 {
			fmt.Fprintf(out, "  %s\n", line)
		} else {
			fmt.Fprintf(out, "  %s\n", ColorDim(line))
		}
	}

	if suggestion := getSuggestion(message); suggestion != "" {
		return []string{suggestion}
	}
	return nil
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(out, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(out, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(out, "%s %s\n", ColorInfo("INFO:"), message)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := items[:0:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// getSuggestion returns helpful suggestions based on error messages
func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "password authentication failed"):
		return "Check DB_USER and DB_PASSWORD in the [CLUSTER] section"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "Verify the cluster endpoint and that it accepts connections from this network"
	case strings.Contains(lower, "stl_load_errors"):
		return "Query stl_load_errors for the rejected rows"
	case strings.Contains(lower, "permission denied"):
		return "Ensure the database user has the necessary privileges"
	case strings.Contains(lower, "does not exist"):
		return "Run 'songdwh create-tables' first"
	default:
		return ""
	}
}
