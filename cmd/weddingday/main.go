package main

import (
	"log"

	"github.com/MrSnakeDoc/weddingday/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ weddingday failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ weddingday stopped with error: %v", err)
	}
}
