package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
)

// Usage example on the command line:
// > go run main.go -base=http://localhost:3001
func main() {
	base := flag.String("base", "http://localhost:3001", "base URL of the contacts service")
	flag.Parse()

	fmt.Println()
	fmt.Println("  Elements      POST     PATCH       GET ")
	fmt.Println("-----------------------------------------")
	sizes := []int{1000, 5000, 10000, 50000}
	for _, loops := range sizes {
		fmt.Printf("%10d", loops)
		ids := make([]int64, 0, loops)
		{
			// POST requests
			var duration int64
			for i := 0; i < loops; i++ {
				id, d := sendPostRequest(*base, bytes.NewReader(newContactBody()))
				ids = append(ids, id)
				duration += d
			}
			fmt.Printf("%10d", duration/int64(loops*1000))
		}
		{
			// PATCH requests
			f := func(id int64) int64 {
				body := []byte(fmt.Sprintf(`{"phone": "+39 %d"}`, rand.Intn(1000000)))
				return sendPatchGetRequest(*base, id, http.MethodPatch, bytes.NewReader(body))
			}
			callInLoop(ids, f)
		}
		{
			// GET requests
			f := func(id int64) int64 {
				return sendPatchGetRequest(*base, id, http.MethodGet, nil)
			}
			callInLoop(ids, f)
		}
		fmt.Println()
	}
}

// newContactBody returns a creation request with an email that has not been used before.
func newContactBody() []byte {
	body, _ := json.Marshal(model.NewContact{
		Name:  "Marcus Antonius",
		Email: uuid.NewString() + "@example.com",
	})
	return body
}

func callInLoop(ids []int64, f func(id int64) int64) {
	shuffled := make([]int64, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration int64
	for _, id := range shuffled {
		duration += f(id)
	}
	fmt.Printf("%10d", duration/int64(len(ids)*1000))
}

func sendPostRequest(base string, bodyReader io.Reader) (int64, int64) {
	resBody, duration := sendRequest(http.MethodPost, base+"/contacts", bodyReader)
	var contact model.Contact
	err := json.Unmarshal(resBody, &contact)
	if err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
	return contact.Id, duration
}

func sendPatchGetRequest(base string, id int64, method string, bodyReader io.Reader) int64 {
	requestURL := fmt.Sprintf("%s/contacts/%d", base, id)
	_, duration := sendRequest(method, requestURL, bodyReader)
	return duration
}

func sendRequest(method string, requestURL string, bodyReader io.Reader) ([]byte, int64) {
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	after := time.Now().UnixNano()
	return resBody, after - before
}
