package infra

import "testing"

func TestExtractMarker(t *testing.T) {
	query := `--sql 6272703b-ebc9-4dc8-891e-9fb94d9d1e02
select 1;
`
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "6272703b-ebc9-4dc8-891e-9fb94d9d1e02" {
		t.Fatalf("marker mismatch: %q", marker)
	}
	if trimmed != "select 1;" {
		t.Fatalf("trimmed query mismatch: %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarkedQuery(t *testing.T) {
	for _, query := range []string{
		"select 1;",
		"--sql not-a-uuid\nselect 1;",
		"",
	} {
		if _, _, err := extractMarker(query); err == nil {
			t.Fatalf("query %q: expected error for missing marker", query)
		}
	}
}
