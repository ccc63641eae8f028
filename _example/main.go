package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hupe1980/bigio"
)

func main() {
	size := 256 << 20 // 256 MiB
	chunkSize := int64(16 << 20)

	path := "./payload.bin"
	defer os.Remove(path)

	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	if err := os.WriteFile(path, payload, 0o600); err != nil {
		log.Fatal(err)
	}

	fmt.Println("--- Chunked read ---")
	fmt.Println("Size:", size)
	fmt.Println("Chunk size:", chunkSize)

	start := time.Now()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithChunkSize(chunkSize),
		// bigio.WithSpinWait(),
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := s.Wait(); err != nil {
		log.Fatal(err)
	}

	elapsed := time.Since(start)

	fmt.Println("State:", s.State())
	fmt.Printf("Elapsed: %v (%.1f MiB/s)\n", elapsed, float64(size)/(1<<20)/elapsed.Seconds())

	if err := s.Close(); err != nil {
		log.Fatal(err)
	}
}
