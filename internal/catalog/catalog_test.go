package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	apis := c.APIs()
	if len(apis) != 7 {
		t.Fatalf("len(APIs) = %d, want 7", len(apis))
	}
	for i := 1; i < len(apis); i++ {
		if apis[i-1].Name > apis[i].Name {
			t.Fatalf("APIs not sorted: %q before %q", apis[i-1].Name, apis[i].Name)
		}
	}
	img, ok := c.Lookup("Image API")
	if !ok {
		t.Fatal("Image API missing")
	}
	if img.CostPerCall != 0.002 || img.QuotaDaily != 10000 || img.RateLimitPerSecond != 10 {
		t.Errorf("Image API = %+v", img)
	}
	if got := c.CostPerCall("Nope API"); got != 0 {
		t.Errorf("CostPerCall(unknown) = %v, want 0", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":     "apis: []",
		"no name":   "apis:\n  - cost_per_call: 1",
		"duplicate": "apis:\n  - name: A\n  - name: A",
		"negative":  "apis:\n  - name: A\n    quota_daily: -1",
		"not yaml":  "apis: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apis.yaml")
	doc := "apis:\n  - name: Maps API\n    cost_per_call: 0.01\n    quota_daily: 100\n    rate_limit_per_second: 2\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := c.Lookup("Image API"); ok {
		t.Error("file catalog should replace the default")
	}
	if a, ok := c.Lookup("Maps API"); !ok || a.QuotaDaily != 100 {
		t.Errorf("Maps API = %+v, %v", a, ok)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
