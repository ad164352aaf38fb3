package core

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyCoreImportsPersistenceBackends ensures the concrete storage
// backends stay behind the service layer. Every other package must depend on
// domain.PersistentStore instead of a backend package.
func TestOnlyCoreImportsPersistenceBackends(t *testing.T) {
	backendPrefix := "dormcore/internal/infra/persistence"
	allowedPrefixes := []string{
		"dormcore/internal/core",
		"dormcore/internal/infra/persistence",
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "dormcore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	allowed := func(pkgPath string) bool {
		for _, prefix := range allowedPrefixes {
			if pkgPath == prefix || strings.HasPrefix(pkgPath, prefix+"/") ||
				strings.HasPrefix(pkgPath, prefix+".") || strings.HasPrefix(pkgPath, prefix+"_test") {
				return true
			}
		}
		return false
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if allowed(strings.TrimSuffix(pkg.PkgPath, ".test")) {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == backendPrefix || strings.HasPrefix(importPath, backendPrefix+"/") {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of a persistence backend: %s", v)
		}
		t.Fatalf("found %d forbidden imports of persistence backends", len(violations))
	}
}
