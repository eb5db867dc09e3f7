// Command devflow runs the devflow API and its tooling.
//
// @title        devflow API
// @version      1.0
// @description  Questions, answers, tags, votes and collections for the devflow community.
// @BasePath     /api
package main

import (
	"os"

	"github.com/tbourn/go-devflow-backend/internal/commands"
)

// version is set via ldflags: -X main.version=v1.0.0
var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
