package roster

import (
	"strings"
	"testing"
)

func TestPassage(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		expected string
	}{
		{
			name: "all fields",
			record: Record{
				DisplayName:     "Kovács János",
				Title:           "egyetemi docens",
				Department:      "Informatika",
				Company:         "NIK",
				TelephoneNumber: "123-4567",
				UPN:             "kovacs.janos@uni.hu",
				OUPath:          "NIK/Informatika",
			},
			expected: "passage: Név: Kovács János, Beosztás: egyetemi docens, " +
				"Tanszék: Informatika, Kar: NIK, Telefonszám: 123-4567, " +
				"Email: kovacs.janos@uni.hu, Szervezeti egység: NIK/Informatika",
		},
		{
			name: "absent fields omitted",
			record: Record{
				DisplayName:     "Kovács János",
				Department:      "Informatika",
				TelephoneNumber: "123-4567",
			},
			expected: "passage: Név: Kovács János, Tanszék: Informatika, Telefonszám: 123-4567",
		},
		{
			name:     "empty record",
			record:   Record{},
			expected: "passage: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.record.Passage()
			if got != tt.expected {
				t.Errorf("Passage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPassageDeterministic(t *testing.T) {
	rec := Record{DisplayName: "Nagy Éva", Department: "Matematika"}
	if rec.Passage() != rec.Passage() {
		t.Error("Passage() is not deterministic")
	}
}

func TestPayloadAlwaysHasAllKeys(t *testing.T) {
	payload := Record{DisplayName: "Nagy Éva"}.Payload()
	want := []string{
		FieldDisplayName, FieldTitle, FieldDepartment, FieldCompany,
		FieldTelephoneNumber, FieldUPN, FieldOUPath,
	}
	if len(payload) != len(want) {
		t.Fatalf("payload has %d keys, want %d", len(payload), len(want))
	}
	for _, key := range want {
		if _, ok := payload[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}
	if payload[FieldTitle] != "" {
		t.Errorf("absent field should be empty string, got %q", payload[FieldTitle])
	}
}

func TestQueryText(t *testing.T) {
	got := QueryText("Kovács János telefonszáma")
	if !strings.HasPrefix(got, QueryPrefix) {
		t.Errorf("QueryText() = %q, missing query prefix", got)
	}
	if got != "query: Kovács János telefonszáma" {
		t.Errorf("QueryText() = %q", got)
	}
}
