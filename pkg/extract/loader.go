// Package extract derives fcode wire shapes from Go source code.
//
// It loads packages with go/packages, walks the exported named types,
// and produces a schema.Manifest that can be committed next to the
// code and diffed across releases to catch wire-breaking rewrites.
package extract

import (
	"fmt"

	"golang.org/x/tools/go/packages"
)

// PackageLoader loads Go packages for shape extraction.
type PackageLoader struct {
	config *packages.Config
}

// NewPackageLoader creates a loader with the analysis modes the
// collector needs.
func NewPackageLoader() *PackageLoader {
	return &PackageLoader{
		config: &packages.Config{
			Mode: packages.NeedName |
				packages.NeedTypes |
				packages.NeedTypesInfo |
				packages.NeedSyntax |
				packages.NeedImports |
				packages.NeedDeps,
		},
	}
}

// Load loads packages matching the given patterns.
func (l *PackageLoader) Load(patterns ...string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(l.config, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, err := range pkg.Errors {
			errs = append(errs, err)
		}
	})
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %v", errs[0])
	}
	return pkgs, nil
}
