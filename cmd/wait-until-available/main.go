package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Usage example on the command line:
// > go run main.go -url=http://localhost:3001/health -timeout=2m
func main() {
	url := flag.String("url", "http://localhost:3001/health", "the endpoint that must answer with 200")
	timeout := flag.Duration("timeout", 5*time.Minute, "give up after this duration")
	flag.Parse()

	totalWaitTime := 0
	for {
		res, err := http.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			} else {
				fmt.Println(res.Status)
			}
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		if time.Duration(totalWaitTime)*time.Second > *timeout {
			fmt.Printf("Service not available after %d seconds", totalWaitTime)
			fmt.Println()
			os.Exit(1)
		}
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
