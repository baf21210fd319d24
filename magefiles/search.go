//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs queries/<db>.txt against its database.
func Search(db string) error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "search", db)
}

// Dedup builds the CLI and deduplicates all saved results.
func Dedup() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "dedup", "all")
}
