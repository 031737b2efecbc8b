package main

import (
	"os"

	"github.com/scouting-oidc/scouting-oidc/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
