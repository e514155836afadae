// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v4"
)

// MOENVSpec is a trimmed copy of the MOENV open-data specification with the
// issues the sanitizer targets: api_key declared as a query parameter with a
// hardcoded default, no security requirement on GET operations, and a
// flow-style responses mapping with an unquoted status code.
const MOENVSpec = `openapi: 3.0.1
info:
  title: 環境部環境資料開放平臺
  version: v2
servers:
  - url: https://data.moenv.gov.tw/api/v2
paths:
  /aqx_p_10:
    get:
      tags:
        - 空氣
      summary: 細懸浮微粒手動監測資料
      operationId: aqx_p_10
      parameters:
        - name: api_key
          in: query
          required: true
          schema:
            type: string
          default: 9be7b239-557b-4c10-9775-78cadfc555e9
        - name: limit
          in: query
          schema:
            type: integer
        - name: format
          in: query
          schema:
            type: string
      responses: { 200: { description: OK } }
  /aqf_p_01:
    get:
      summary: 空氣品質預報資料
      operationId: aqf_p_01
      responses:
        '200':
          description: OK
  /eedu_p_10:
    post:
      summary: 環境教育活動數量
      parameters:
        - name: api_key
          in: query
          default: SECRET123
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                api_key:
                  type: string
                  default: SECRET123
                year:
                  type: integer
                  default: 2024
      responses:
        '200':
          description: OK
components:
  securitySchemes:
    ApiKeyAuth:
      type: apiKey
      in: query
      name: api_key
`

// MinimalSpec is a document with one GET operation and no parameters,
// request body, or components.
const MinimalSpec = `openapi: 3.0.0
info:
  title: Minimal
  version: "1.0"
paths:
  /ping:
    get:
      responses:
        '200':
          description: pong
`

// WriteTempFile writes content to a temporary file and returns its path.
// The file is automatically cleaned up when the test completes (via t.TempDir).
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(tmpFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}

	return tmpFile
}

// DecodeYAML decodes YAML into a generic value for structural comparisons.
func DecodeYAML(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("Failed to decode YAML: %v", err)
	}
	return out
}

// Lookup walks a decoded document by map keys and sequence indexes.
// It returns nil when any step is missing.
func Lookup(v any, keys ...any) any {
	for _, k := range keys {
		switch key := k.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[key]
		case int:
			s, ok := v.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil
			}
			v = s[key]
		default:
			return nil
		}
	}
	return v
}
