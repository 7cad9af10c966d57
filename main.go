package main

import (
	"os"

	"github.com/NetConsole-Admin/NetConsole-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
