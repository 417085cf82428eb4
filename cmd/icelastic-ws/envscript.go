package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// writeEnvScript emits a shell script exporting each config fragment as an
// ordered ICELASTIC_WS_JSON_* variable, so that loadConfig applies them in
// file order.
func writeEnvScript(w io.Writer, files []string, backendURL, port string) error {
	var lines []string

	for i, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return err
		}

		// reject fragments the service would refuse at startup
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(defaultConfig()); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		lines = append(lines, fmt.Sprintf("export %s%02d=%s", envJSONPrefix, i+1, shellQuote(compact.String())))
	}

	if backendURL != "" {
		lines = append(lines, fmt.Sprintf("export %s=%s", envBackendURL, shellQuote(backendURL)))
	}
	if port != "" {
		lines = append(lines, fmt.Sprintf("export %s=%s", envPort, shellQuote(port)))
	}

	_, err := fmt.Fprintf(w, "#!/bin/bash\n\n%s\n", strings.Join(lines, "\n"))
	return err
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
