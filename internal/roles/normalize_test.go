// internal/roles/normalize_test.go
package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Mazowieckie", "mazowieckie"},
		{"Małopolskie", "małopolskie"}, // stroke l does not decompose
		{"Śląskie", "slaskie"},
		{"Koło Gdańsk Wrzeszcz", "kołogdanskwrzeszcz"},
		{"Żoliborz", "zoliborz"},
		{"  spaced  out  ", "spacedout"},
		{"", ""},
		{"already-canonical", "already-canonical"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "Normalize(%q)", c.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"Świętokrzyskie", "Łódzkie", "Koło Nr 7"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once))
	}
}
