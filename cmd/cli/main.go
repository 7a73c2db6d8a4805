package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Product id to watch (as used by the vendor app): ")
	pid, _ := reader.ReadString('\n')
	pid = strings.TrimSpace(pid)
	if pid == "" {
		fmt.Println("No product id given.")
		return
	}

	fmt.Print("Offer ids to watch, comma-separated (e.g., 40613799,40613800): ")
	raw, _ := reader.ReadString('\n')
	var sizes []string
	for _, s := range strings.Split(strings.TrimSpace(raw), ",") {
		if s = strings.TrimSpace(s); s != "" {
			sizes = append(sizes, s)
		}
	}
	if len(sizes) == 0 {
		fmt.Println("At least one offer id is required.")
		return
	}

	body, _ := json.Marshal(map[string]any{"product_id": pid, "sizes": sizes})
	req, _ := http.NewRequest(http.MethodPost, api+"/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		fmt.Println("Watching! Check GET /api/products for the current state.")
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
