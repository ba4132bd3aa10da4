package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                     "/",
		"/metrics":                             "/metrics",
		"/api/admin/users":                     "/api/admin/users",
		"/api/admin/users/abc":                 "/api/admin/users/:id",
		"/api/admin/users/abc/role":            "/api/admin/users/:id/role",
		"/api/admin/users/abc/ban":             "/api/admin/users/:id/ban",
		"/api/admin/warnings/w1":               "/api/admin/warnings/:id",
		"/api/admin/listings/l1":               "/api/admin/listings/:id",
		"/api/admin/audit":                     "/api/admin/audit",
		"/api/admin/users/abc/role?verbose=1":  "/api/admin/users/:id/role",
		"/api/admin/users/abc/role/extra/deep": "/api/admin/users/abc/role/extra/deep",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
