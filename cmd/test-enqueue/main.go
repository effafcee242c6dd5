package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/internal/config"
	"github.com/jwebster45206/simulation-suite/internal/logger"
	"github.com/jwebster45206/simulation-suite/internal/services/queue"
	queuePkg "github.com/jwebster45206/simulation-suite/pkg/queue"
)

// test-enqueue pushes a round (and optionally a portrait request) onto the
// worker queue for an existing session.
func main() {
	sessionFlag := flag.String("session", "", "session id to run the round for")
	message := flag.String("message", "Computer, show me the current simulation state.", "player message for the round")
	portrait := flag.String("portrait", "", "also queue a portrait for this character")
	flag.Parse()

	sessionID, err := uuid.Parse(*sessionFlag)
	if err != nil {
		log.Fatalf("A valid -session id is required: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.Setup(cfg)

	client, err := queue.NewClient(cfg.RedisURL, lg)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer func() {
		_ = client.Close()
	}()
	q := queue.NewRoundQueue(client)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	round := queuePkg.NewRoundRequest(sessionID, *message)
	if err := q.EnqueueRequest(ctx, round); err != nil {
		log.Fatal("Failed to enqueue round: ", err)
	}
	fmt.Printf("✅ Enqueued round request: %s\n", round.RequestID)

	if *portrait != "" {
		req := queuePkg.NewPortraitRequest(sessionID, *portrait)
		if err := q.EnqueueRequest(ctx, req); err != nil {
			log.Fatal("Failed to enqueue portrait: ", err)
		}
		fmt.Printf("✅ Enqueued portrait request: %s\n", req.RequestID)
	}

	depth, err := q.RequestQueueDepth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth: ", err)
	}

	fmt.Printf("\n📊 Queue depth: %d requests\n", depth)
	fmt.Println("\n💡 Now start the worker to see it process these requests!")
	fmt.Println("   Run: go run cmd/worker/main.go")
}
