package main

import (
	"log"

	"github.com/AgentPisite999/Car-Site/internal/portal"
)

func main() {
	if err := portal.Run(); err != nil {
		log.Fatal(err)
	}
}
