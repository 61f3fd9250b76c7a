// FILE: src/cmd/quantumlog/main.go
package main

import (
	"os"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	router := NewCommandRouter()
	if err := router.Route(os.Args); err != nil {
		FatalError(1, "Error: %v\n", err)
	}
}
