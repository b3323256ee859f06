package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-pbr-pathtracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	flag.Parse()

	webServer := server.NewServer(*port)

	log.Printf("Progressive Path Tracer Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", *port)
	log.Printf("Try /api/render?scene=showcase&frames=32 or /api/scenes")

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
