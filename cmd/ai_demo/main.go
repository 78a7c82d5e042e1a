package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"atlas/internal/ai"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/job"
)

// Runs the itinerary pipeline once against the live provider and prints the
// result. Handy for eyeballing prompt and parser changes without the server.
func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	ctx := context.Background()
	provider, err := ai.NewGeminiProvider(ctx, apiKey, model)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	defer provider.Close()

	days := 3
	raw := &itinerary.RawRequest{
		Destination:  "Kyoto",
		StartDate:    time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		DurationDays: &days,
		Interests:    []string{"temples", "food"},
		Notes:        "first visit, slow mornings preferred",
	}
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("read request file: %v", err)
		}
		if err := json.Unmarshal(data, raw); err != nil {
			log.Fatalf("parse request file: %v", err)
		}
	}

	req, stripped, rej := itinerary.Validate(raw)
	if rej != nil {
		log.Fatalf("request rejected: %v", rej)
	}
	if len(stripped) > 0 {
		fmt.Printf("stripped patterns: %v\n", stripped)
	}

	svc := itinerary.NewService(provider, job.NewStore(), nil, nil, nil, nil, 60*time.Second, 1)
	it, err := svc.Generate(ctx, req)
	if err != nil {
		failure := itinerary.FailureFor(err)
		log.Fatalf("generation failed (%s): %v", failure.Reason, err)
	}

	out, _ := json.MarshalIndent(it, "", "  ")
	fmt.Println(string(out))
}
