package normalize

import (
	"testing"
)

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "accents and case",
			input: "María José Pérez",
			want:  "maria jose perez",
		},
		{
			name:  "surrounding whitespace",
			input: "   Ana Lucía Gómez  ",
			want:  "ana lucia gomez",
		},
		{
			name:  "punctuation removed without inserting spaces",
			input: "J. O'Brien-Smith",
			want:  "j obriensmith",
		},
		{
			name:  "enye transliterated",
			input: "Begoña Núñez",
			want:  "begona nunez",
		},
		{
			name:  "community with punctuation",
			input: "San Pedro (Sector 2),",
			want:  "san pedro sector 2",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: " \t \n",
			want:  "",
		},
		{
			name:  "punctuation only",
			input: "--.,",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{
		"María José Pérez",
		"  ÉLODIE «DUPONT» ",
		"Straße 5",
		"Œuvre d'Ærø",
		"São Tomé / Príncipe",
		"北京",
		"J. Smith",
		"",
		"   ",
	}

	for _, in := range inputs {
		once := Name(in)
		twice := Name(once)
		if once != twice {
			t.Errorf("Name not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank("  ...  ") {
		t.Errorf("IsBlank should be true for punctuation-only input")
	}
	if IsBlank("Rosa") {
		t.Errorf("IsBlank should be false for a real name")
	}
}
