// Package export writes reconciliation reports as JSON, YAML or XLSX.
package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/kinship-cli/internal/model"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves an explicit format name, falling back to the file
// extension of path when name is empty.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unsupported format %q", name)
	}
}

// Encode writes the report to w in the given format.
func Encode(w io.Writer, format Format, rep *model.Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rep), "export: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		return eris.Wrap(enc.Close(), "export: close yaml")
	case FormatXLSX:
		return eris.Wrap(workbook(rep).Write(w), "export: write xlsx")
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

// Write encodes the report to path, creating parent directories.
// format may be empty to infer it from the extension.
func Write(path string, format string, rep *model.Report) error {
	f, err := ParseFormat(format, path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create %s", dir)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := Encode(out, f, rep); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(out.Close(), "export: close %s", path)
}
