package main

import (
	_ "github.com/eleven-am/live-commentary/docs"
	"github.com/eleven-am/live-commentary/internal/bootstrap"
)

// @title Live Commentary API
// @version 1.0.0
// @description Hosts live-commentary widgets: screen capture, vision model calls and a paced fake chat

// @host localhost:8080
// @BasePath /v1

func main() {
	bootstrap.Run()
}
