// Presigned Upload URL Lambda entry point
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"blood-donation-engine/internal/handlers"
	"blood-donation-engine/internal/utils"
)

func main() {
	// Initialize logger
	_ = utils.InitLogger("info")
	defer utils.Sync()

	// Create handler
	handler, err := handlers.NewPresignedURLHandler()
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}

	// Start Lambda
	lambda.Start(handler.Handle)
}
