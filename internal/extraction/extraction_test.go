package extraction

import (
	"context"
	"testing"

	"medivault/internal/config"
)

func TestExtractDisabledWithoutAPIKey(t *testing.T) {
	client := New(&config.Config{GeminiModel: "gemini-2.5-flash"})

	result, err := client.Extract(context.Background(), "https://example.com/report.pdf", "pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v, want nil when disabled", err)
	}
	if len(result.Vitals) != 0 || result.Summary != "" {
		t.Errorf("Extract() disabled result = %+v, want empty", result)
	}
}

func TestParseVitals(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			"plain array",
			`[{"vitalType":"heart_rate","value":72,"unit":"bpm"}]`,
			1,
		},
		{
			"json fence",
			"```json\n[{\"vitalType\":\"spo2\",\"value\":98,\"unit\":\"%\"}]\n```",
			1,
		},
		{
			"bare fence",
			"```\n[{\"vitalType\":\"hemoglobin\",\"value\":13.5,\"unit\":\"g/dL\"}]\n```",
			1,
		},
		{
			"unknown type discarded",
			`[{"vitalType":"temperature","value":98.6,"unit":"F"},{"vitalType":"heart_rate","value":70,"unit":"bpm"}]`,
			1,
		},
		{
			"non-positive value discarded",
			`[{"vitalType":"heart_rate","value":0,"unit":"bpm"},{"vitalType":"heart_rate","value":-5,"unit":"bpm"}]`,
			0,
		},
		{"empty array", `[]`, 0},
		{"garbage", `the report shows a heart rate of 72`, 0},
		{"explanation before json", `Here are the vitals: [{"vitalType":"heart_rate","value":72}]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseVitals(tt.text)
			if len(got) != tt.want {
				t.Errorf("parseVitals() = %v, want %d vitals", got, tt.want)
			}
		})
	}
}

func TestParseVitalsFillsMissingUnit(t *testing.T) {
	got := parseVitals(`[{"vitalType":"blood_sugar","value":104}]`)
	if len(got) != 1 {
		t.Fatalf("parseVitals() = %v, want 1 vital", got)
	}
	if got[0].Unit != "mg/dL" {
		t.Errorf("parseVitals() unit = %q, want default mg/dL", got[0].Unit)
	}
}
