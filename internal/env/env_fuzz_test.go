package env

import (
	"strings"
	"testing"
)

func FuzzMerge(f *testing.F) {
	f.Add("K=V", "A=B")
	f.Add("=", "NOEQ")
	f.Add("X=${Y}", "Y=z")
	f.Fuzz(func(t *testing.T, global, per string) {
		e := New()
		e.env = Var{} // isolate from the real OS environment
		if i := strings.IndexByte(global, '='); i > 0 {
			e.Set(global[:i], global[i+1:])
		}
		out := e.Merge([]string{per})
		for _, kv := range out {
			if kv == "" {
				t.Fatal("empty entry in merged env")
			}
			if !strings.Contains(kv, "=") {
				t.Fatalf("entry without '=': %q", kv)
			}
			if strings.HasPrefix(kv, "=") {
				t.Fatalf("entry with empty key: %q", kv)
			}
		}
	})
}
