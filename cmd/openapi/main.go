// Command openapi writes the API description without connecting to any database.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/LoganMeitz/votefinder/internal/server"
	"github.com/LoganMeitz/votefinder/pkg/config"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/middleware"

	"gopkg.in/yaml.v3"
)

func main() {
	var (
		output = flag.String("output", "openapi.json", "Output file, - for stdout")
		format = flag.String("format", "json", "Output format: json or yaml")
	)
	flag.Parse()

	// Route construction reads the secret; nothing is signed here.
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "openapi")
	}

	db, err := database.NewDetachedMongoDB(config.GetMongoDatabase())
	if err != nil {
		log.Fatalf("Failed to create database handles: %v", err)
	}
	authorizer, err := middleware.NewMemoryAuthorizer()
	if err != nil {
		log.Fatalf("Failed to create authorizer: %v", err)
	}
	srv, err := server.New(db, nil, authorizer)
	if err != nil {
		log.Fatalf("Failed to build API: %v", err)
	}

	data, err := json.MarshalIndent(srv.API.OpenAPI(), "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode OpenAPI document: %v", err)
	}
	if *format == "yaml" {
		if data, err = toYAML(data); err != nil {
			log.Fatalf("Failed to convert to YAML: %v", err)
		}
	}

	if *output == "-" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	log.Printf("OpenAPI document written to %s", *output)
}

// toYAML re-encodes the JSON document so field names and omitempty rules match.
func toYAML(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
