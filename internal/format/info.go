package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sdkfeedback/internal/sysinfo"
)

// WriteInfo writes the installation snapshot as text or JSON.
func WriteInfo(w io.Writer, info sysinfo.Info, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "text":
		_, err := io.WriteString(w, info.String())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
