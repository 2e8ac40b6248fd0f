package main

import (
	"log"

	"github.com/psds-microservice/apihub-assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
