package main

import (
	"log"
	"os"

	"eventcat/internal/cli"
)

func main() {
	// log to a file; stdout belongs to the TUI
	logFile, err := os.OpenFile("eventcat.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	cli.Execute()
}
