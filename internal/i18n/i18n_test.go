package i18n

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"en-US,en;q=0.9", "en"},
		{"EN-gb", "en"},
		{"pt-BR,pt;q=0.9,en;q=0.8", "pt"},
		{"fr-FR,en;q=0.5", "en"},
		{"fr-FR", "pt"},
		{"en;q=0.1, pt;q=0.9", "pt"},
		{"pt;q=0.2,en-US;q=0.8", "en"},
		{"not a header;;", "pt"},
		{"", "pt"},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.header); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("pt", "required") != "Obrigatório" {
		t.Fatalf("expected Obrigatório")
	}
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	if T("es", "required") != "Obrigatório" {
		t.Fatalf("expected pt fallback for es lang")
	}
}

func TestCataloguesHaveSameKeys(t *testing.T) {
	for code := range messages[DefaultLanguage] {
		if _, ok := messages["en"][code]; !ok {
			t.Errorf("en catalogue is missing %q", code)
		}
	}
	for code := range messages["en"] {
		if _, ok := messages[DefaultLanguage][code]; !ok {
			t.Errorf("pt catalogue is missing %q", code)
		}
	}
}
