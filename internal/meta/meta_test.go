package meta

import "testing"

func TestScope(t *testing.T) {
	if None.IsScoped() {
		t.Error("zero-value scope must be unscoped")
	}
	s := Scope{Context: "org_a"}
	if !s.IsScoped() {
		t.Error("expected scoped")
	}
	if s.Unscoped().IsScoped() {
		t.Error("Unscoped() must clear the context")
	}
}
