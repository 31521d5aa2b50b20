// langfx aligns infobox property vocabularies across language editions: it
// shards per-language RDF dumps, resolves entity titles through langlinks
// lookups, and reports which properties of one edition correspond to which
// properties of another.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/termfx/langfx/internal/cli"
)

func main() {
	// missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
