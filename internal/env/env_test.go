package env

import (
	"strings"
	"testing"
)

func lookup(envs []string, key string) (string, bool) {
	for _, kv := range envs {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

func TestMergePrecedence(t *testing.T) {
	e := New()
	e.env = Var{"BASE": "os", "SHARED": "os"}
	e.Set("SHARED", "global")
	e.Set("GLOBAL", "g")

	out := e.Merge([]string{"SHARED=service", "SERVICE=s"})
	if v, _ := lookup(out, "BASE"); v != "os" {
		t.Fatalf("BASE = %q, want os", v)
	}
	if v, _ := lookup(out, "SHARED"); v != "service" {
		t.Fatalf("per-service must win: SHARED = %q", v)
	}
	if v, _ := lookup(out, "GLOBAL"); v != "g" {
		t.Fatalf("GLOBAL = %q, want g", v)
	}
	if v, _ := lookup(out, "SERVICE"); v != "s" {
		t.Fatalf("SERVICE = %q, want s", v)
	}
}

func TestMergeExpandsVariables(t *testing.T) {
	e := New()
	e.env = Var{"HOME": "/home/dev"}
	out := e.Merge([]string{"DATA=${HOME}/data"})
	if v, _ := lookup(out, "DATA"); v != "/home/dev/data" {
		t.Fatalf("expansion failed: DATA = %q", v)
	}
}

func TestMergeSkipsMalformedEntries(t *testing.T) {
	e := New()
	e.env = Var{}
	out := e.Merge([]string{"=value", "no-equals-sign", "OK=1"})
	if _, found := lookup(out, ""); found {
		t.Fatal("empty key must be skipped")
	}
	if v, found := lookup(out, "OK"); !found || v != "1" {
		t.Fatalf("valid entry lost: %v", out)
	}
}
