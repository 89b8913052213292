package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/annel0/voxelcore/internal/eventbus"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/gorilla/websocket"
)

const (
	defaultServerAddr = "localhost:8088"
	timeFormat        = "15:04:05.000"
)

func main() {
	var (
		serverAddr = flag.String("server", defaultServerAddr, "REST API address")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Sources filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 - follow forever)")
	)
	flag.Parse()

	switch *command {
	case "tail":
		if err := tailEvents(*serverAddr, *eventTypes, *sources, *limit); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		if err := showStats(*serverAddr); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	case "types":
		showTypes()
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}
}

// tailEvents печатает события из /ws/events
func tailEvents(addr, types, sources string, limit int) error {
	q := url.Values{}
	if types != "" {
		q.Set("type", types)
	}
	if sources != "" {
		q.Set("source", sources)
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws/events", RawQuery: q.Encode()}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", u.String(), err)
	}
	defer conn.Close()

	fmt.Printf("🎬 Tailing events from %s (limit: %d)\n", u.String(), limit)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
	}()

	count := 0
	for limit == 0 || count < limit {
		var ev eventbus.Envelope
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			return err
		}
		printEvent(&ev)
		count++
	}

	fmt.Printf("\n📊 Total events: %d\n", count)
	return nil
}

// showStats печатает счётчики шины и движка из /api/v1/server
func showStats(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/v1/server")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Uptime string          `json:"uptime"`
			Ticks  uint64          `json:"ticks"`
			Chunks int             `json:"chunks"`
			Events eventbus.Stats  `json:"events"`
			Last   json.RawMessage `json:"last_rebuild"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !body.Success {
		return fmt.Errorf("server responded %s", resp.Status)
	}

	d := body.Data
	fmt.Printf("Uptime: %s  Ticks: %d  Chunks: %d\n", d.Uptime, d.Ticks, d.Chunks)
	fmt.Printf("Events: published %d, consumed %d, dropped %d, in flight %d\n",
		d.Events.Published, d.Events.Consumed, d.Events.Dropped, d.Events.InFlight)
	fmt.Printf("Last rebuild: %s\n", d.Last)
	return nil
}

func showTypes() {
	for _, t := range []world.EventType{world.EventTypeBlockChange, world.EventTypeChunkMeshed} {
		fmt.Println(t.String())
	}
}

func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s/%s %s\n", ev.Timestamp.Local().Format(timeFormat), ev.Source, ev.EventType, ev.ID)

	switch ev.EventType {
	case world.EventTypeBlockChange.String():
		var e world.BlockEvent
		if err := json.Unmarshal(ev.Payload, &e); err == nil {
			fmt.Printf("  Block: (%d,%d,%d) %s -> %s\n", e.Position.X, e.Position.Y, e.Position.Z, e.Old, e.New)
		}
	case world.EventTypeChunkMeshed.String():
		var e world.ChunkMeshedEvent
		if err := json.Unmarshal(ev.Payload, &e); err == nil {
			fmt.Printf("  Chunk: (%d,%d,%d) vertices %d\n", e.Chunk.X, e.Chunk.Y, e.Chunk.Z, e.VertexCount)
		}
	default:
		fmt.Printf("  %s\n", strings.TrimSpace(string(ev.Payload)))
	}
}
