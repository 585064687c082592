// Fishbot - casts, watches the float, listens for the bite and reels in
package main

import (
	"os"

	"github.com/GriffinCanCode/fishbot/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
