// Command fcode maintains wire-shape manifests for fcode types.
//
// The fcode wire format carries no field names or tags: field order is
// the schema. This tool extracts the positional wire shape of Go types,
// records it in a manifest, and checks later versions of the code
// against that manifest so that accidental reorderings and incompatible
// rewrites fail the build instead of corrupting data.
//
// Usage:
//
//	fcode schema [-out file] <package>...
//	fcode check -against manifest <package>...
//	fcode gen -package name [-out file] <manifest>
//	fcode version
//
// Schema Command:
//
//	Extract the wire shapes of the exported types in the given Go
//	packages and write a manifest.
//
//	Options:
//	  -out string    Output file (default: stdout)
//
// Check Command:
//
//	Extract shapes from the given packages and compare them against a
//	committed manifest. Breaking rewrites (reorders, inserts, retypes,
//	signedness changes, removed variants) exit nonzero; legal but
//	notable rewrites print as warnings.
//
//	Options:
//	  -against string   Manifest file to compare against (required)
//
// Gen Command:
//
//	Generate a Go source file of stability-hash constants from a
//	manifest.
//
//	Options:
//	  -package string   Package name for the generated file (required)
//	  -out string       Output file (default: stdout)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tijsvd/fcode/pkg/codegen"
	"github.com/tijsvd/fcode/pkg/extract"
	"github.com/tijsvd/fcode/pkg/schema"
)

// Version is set by ldflags at build time.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "schema":
		err = runSchema(os.Args[2:])
	case "check":
		err = runCheck(os.Args[2:])
	case "gen":
		err = runGen(os.Args[2:])
	case "version":
		fmt.Println("fcode", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "fcode: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fcode:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  fcode schema [-out file] <package>...
  fcode check -against manifest <package>...
  fcode gen -package name [-out file] <manifest>
  fcode version`)
}

// extractManifest loads packages and collects their shapes.
func extractManifest(patterns []string) (*schema.Manifest, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no packages given")
	}
	pkgs, err := extract.NewPackageLoader().Load(patterns...)
	if err != nil {
		return nil, err
	}
	return extract.NewCollector().Collect(pkgs)
}

func runSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	out := fs.String("out", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := extractManifest(fs.Args())
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return m.Write(w)
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	against := fs.String("against", "", "manifest file to compare against")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *against == "" {
		return fmt.Errorf("check: -against is required")
	}

	f, err := os.Open(*against)
	if err != nil {
		return err
	}
	old, err := schema.Read(f)
	f.Close()
	if err != nil {
		return err
	}

	current, err := extractManifest(fs.Args())
	if err != nil {
		return err
	}

	report := schema.Check(old, current)
	for _, w := range report.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if !report.IsCompatible() {
		for _, b := range report.Breaking {
			fmt.Fprintln(os.Stderr, "breaking:", b.Error())
		}
		return fmt.Errorf("%d breaking change(s) against %s", len(report.Breaking), *against)
	}
	fmt.Fprintf(os.Stderr, "compatible with %s (%d types)\n", *against, len(old.Types))
	return nil
}

func runGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	pkg := fs.String("package", "", "package name for the generated file")
	out := fs.String("out", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pkg == "" {
		return fmt.Errorf("gen: -package is required")
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("gen: exactly one manifest file expected")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := schema.Read(f)
	f.Close()
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		of, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer of.Close()
		w = of
	}
	return codegen.Generate(w, m, codegen.Options{
		Package: *pkg,
		Header:  "fcode gen -package " + *pkg + " " + fs.Arg(0),
	})
}
