// Simulator serves the two stream channels with synthetic content so
// the viewer can be exercised without a live producer. It animates a
// moving block on a solid background and emits matching detection
// boxes.
package main

import (
	"bytes"
	"encoding/base64"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8765", "Listen address")
	width := flag.Int("width", 640, "Frame width")
	height := flag.Int("height", 480, "Frame height")
	fps := flag.Int("fps", 10, "Frames per second")
	flag.Parse()

	if *fps <= 0 || *width <= 0 || *height <= 0 {
		log.Fatalf("fps, width and height must be > 0")
	}

	http.HandleFunc("/video/", func(w http.ResponseWriter, r *http.Request) {
		serveVideo(w, r, *width, *height, *fps)
	})
	http.HandleFunc("/detections/", func(w http.ResponseWriter, r *http.Request) {
		serveDetections(w, r, *width, *height, *fps)
	})

	log.Printf("simulator listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func serveVideo(w http.ResponseWriter, r *http.Request, width, height, fps int) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer sock.Close()
	log.Printf("video subscriber %s on %s", sock.RemoteAddr(), r.URL.Path)

	go discardInbound(sock)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	tick := 0
	for range ticker.C {
		payload, err := frameMessage(width, height, tick)
		if err != nil {
			log.Printf("frame encode: %v", err)
			return
		}
		if err := sock.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
		tick++
	}
}

func serveDetections(w http.ResponseWriter, r *http.Request, width, height, fps int) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer sock.Close()

	// The first client message selects the mode; it only affects the
	// label we report back.
	label := "cow"
	if _, raw, err := sock.ReadMessage(); err == nil {
		var msg struct {
			Type string `json:"type"`
			Mode string `json:"mode"`
		}
		if sonic.Unmarshal(raw, &msg) == nil && msg.Type == "set_mode" {
			switch msg.Mode {
			case "people":
				label = "person"
			case "hunting":
				label = "target"
			}
			log.Printf("detections subscriber %s mode=%s", sock.RemoteAddr(), msg.Mode)
		}
	}

	go discardInbound(sock)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	tick := 0
	for range ticker.C {
		payload, err := detectionsMessage(width, height, tick, label)
		if err != nil {
			log.Printf("detections encode: %v", err)
			return
		}
		if err := sock.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
		tick++
	}
}

func discardInbound(sock *websocket.Conn) {
	for {
		if _, _, err := sock.ReadMessage(); err != nil {
			return
		}
	}
}

// blockRect is the animated block position at the given tick.
func blockRect(width, height, tick int) (x, y, size int) {
	size = min(width, height) / 5
	phase := float64(tick) / 40
	x = int((float64(width-size)/2)*(1+math.Cos(phase))) // sweeps left to right
	y = int((float64(height-size)/2)*(1+math.Sin(phase)))
	return x, y, size
}

func frameMessage(width, height, tick int) ([]byte, error) {
	bg := imaging.New(width, height, color.NRGBA{R: 0x20, G: 0x30, B: 0x20, A: 0xff})
	x, y, size := blockRect(width, height, tick)
	block := imaging.New(size, size, color.NRGBA{R: 0xd0, G: 0xa0, B: 0x30, A: 0xff})
	composed := imaging.Paste(bg, block, image.Pt(x, y))

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, composed, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}

	return sonic.Marshal(map[string]string{
		"type": "frame",
		"data": base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func detectionsMessage(width, height, tick int, label string) ([]byte, error) {
	x, y, size := blockRect(width, height, tick)
	return sonic.Marshal(map[string]any{
		"type": "detections",
		"detections": []map[string]any{{
			"id":         fmt.Sprintf("sim-%d", tick),
			"label":      label,
			"confidence": 0.9,
			"bbox":       []int{x, y, x + size, y + size},
		}},
	})
}
