package server

import "testing"

func TestSplitResourcePath(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		prefix string
		id     string
		action string
		ok     bool
	}{
		{"id only", "/projects/p1", "/projects/", "p1", "", true},
		{"id and action", "/projects/p1/upload", "/projects/", "p1", "upload", true},
		{"trailing slash", "/projects/p1/", "/projects/", "p1", "", true},
		{"prefix only", "/projects/", "/projects/", "", "", false},
		{"wrong prefix", "/assets/a1", "/projects/", "", "", false},
		{"too deep", "/projects/p1/upload/extra", "/projects/", "", "", false},
		{"empty middle segment", "/projects/p1//upload", "/projects/", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, action, ok := splitResourcePath(tc.path, tc.prefix)
			if id != tc.id || action != tc.action || ok != tc.ok {
				t.Fatalf("splitResourcePath(%q, %q) = (%q, %q, %v), want (%q, %q, %v)",
					tc.path, tc.prefix, id, action, ok, tc.id, tc.action, tc.ok)
			}
		})
	}
}
