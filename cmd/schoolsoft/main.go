// cmd/schoolsoft/main.go
package main

import (
	"github.com/law-makers/schoolsoft/internal/cli"
)

func main() {
	// Signal handling and app lifecycle live in cli.Execute
	cli.Execute()
}
