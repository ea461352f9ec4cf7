package catalog

import "fmt"

// CopySpec carries the values substituted into a COPY statement. An empty
// JSONPaths loads with JSON 'auto'.
type CopySpec struct {
	Table     string
	Source    string
	IAMRole   string
	Region    string
	JSONPaths string
}

// RenderCopy builds the bulk-load statement for one staging table. The
// warehouse takes the location and credentials as inline clauses rather
// than bind parameters, so the values are formatted into the text as-is.
// They come from local config and are trusted.
func RenderCopy(spec CopySpec) string {
	format := "JSON 'auto'"
	if spec.JSONPaths != "" {
		format = fmt.Sprintf("FORMAT AS JSON '%s'", spec.JSONPaths)
	}

	return fmt.Sprintf("COPY %s\nFROM '%s'\nCREDENTIALS 'aws_iam_role=%s'\nREGION '%s'\n%s",
		spec.Table,
		spec.Source,
		spec.IAMRole,
		spec.Region,
		format,
	)
}
