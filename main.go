package main

import (
	"os"

	"fqt-booking-api/core/logger"
	"fqt-booking-api/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}
