package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

// Just enough of the session record to read its status
type sessionData struct {
	Session struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"session"`
}

// Actor index entries normally die with their session, but a crash between
// a session ending and its index cleanup can leave actors pinned to a
// finished fight, unable to join a new one until the TTL clears them.
func main() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}

	client := redis.NewClient(opt)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis:", redisURL)
	fmt.Println("Scanning actor indexes for stale entries...")

	iter := client.Scan(ctx, 0, "combat:actor:*:session", 0).Iterator()

	var staleKeys []string
	var checkedCount int

	for iter.Next(ctx) {
		key := iter.Val()
		checkedCount++

		sessionID, err := client.Get(ctx, key).Result()
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", key, err)
			continue
		}

		raw, err := client.Get(ctx, "combat:session:"+sessionID).Result()
		if err == redis.Nil {
			fmt.Printf("STALE (session gone): %s -> %s\n", key, sessionID)
			staleKeys = append(staleKeys, key)
			continue
		}
		if err != nil {
			fmt.Printf("Error reading session %s: %v\n", sessionID, err)
			continue
		}

		var data sessionData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			fmt.Printf("Error parsing session %s: %v\n", sessionID, err)
			continue
		}

		if data.Session.Status == "ended" || data.Session.Status == "cancelled" {
			fmt.Printf("STALE (session %s): %s -> %s\n", data.Session.Status, key, sessionID)
			staleKeys = append(staleKeys, key)
		}
	}

	if err := iter.Err(); err != nil {
		log.Fatal("Scan failed:", err)
	}

	fmt.Printf("\nChecked %d actor indexes, found %d stale\n", checkedCount, len(staleKeys))

	if len(staleKeys) == 0 {
		return
	}

	if len(os.Args) < 2 || os.Args[1] != "--delete" {
		fmt.Println("Dry run only. Re-run with --delete to remove them.")
		return
	}

	deleted, err := client.Del(ctx, staleKeys...).Result()
	if err != nil {
		log.Fatal("Delete failed:", err)
	}
	fmt.Printf("Deleted %d stale actor indexes\n", deleted)
}
