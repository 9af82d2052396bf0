package router

import "testing"

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		name             string
		origin           string
		allowed          []string
		allowCredentials bool
		want             string
	}{
		{"no allowlist", "https://shop.example.com", nil, false, ""},
		{"wildcard", "https://shop.example.com", []string{"*"}, false, "*"},
		{"wildcard with credentials echoes origin", "https://shop.example.com", []string{"*"}, true, "https://shop.example.com"},
		{"wildcard with credentials but no origin", "", []string{"*"}, true, "*"},
		{"exact match", "https://shop.example.com", []string{"https://shop.example.com"}, false, "https://shop.example.com"},
		{"case insensitive match", "https://Shop.Example.com", []string{"https://shop.example.com"}, false, "https://Shop.Example.com"},
		{"not in allowlist", "https://evil.example.com", []string{"https://shop.example.com"}, false, ""},
		{"empty origin", "", []string{"https://shop.example.com"}, false, ""},
	}
	for _, tc := range cases {
		if got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.allowCredentials); got != tc.want {
			t.Fatalf("%s: resolveAllowedOrigin(%q, %v, %v) = %q, want %q",
				tc.name, tc.origin, tc.allowed, tc.allowCredentials, got, tc.want)
		}
	}
}
