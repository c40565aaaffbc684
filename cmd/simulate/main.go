// Double-booking probe: fires concurrent booking requests for the same
// professional and slot at a running api-server, then reports how many
// were admitted. Anything other than exactly one admit means the agenda
// lock is broken.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type bookingBody struct {
	ProfessionalID   string    `json:"professional_id"`
	PatientID        string    `json:"patient_id"`
	StartTime        time.Time `json:"start_time"`
	DurationMinutes  int       `json:"duration_minutes"`
	ConsultationType string    `json:"consultation_type"`
	Copay            string    `json:"copay"`
	CreatedBy        string    `json:"created_by"`
}

type outcome struct {
	admitted  int64
	conflicts int64
	errors    int64
}

func main() {
	log.SetFlags(log.LstdFlags)

	baseURL := flag.String("url", "http://127.0.0.1:8080", "api-server base URL")
	workers := flag.Int("workers", 20, "concurrent booking attempts")
	professional := flag.String("professional", "", "professional UUID (required)")
	patient := flag.String("patient", "", "patient UUID (required)")
	createdBy := flag.String("created-by", "", "creator UUID (defaults to professional)")
	slot := flag.String("slot", "", "slot start, RFC3339 (default: tomorrow 10:00 UTC)")
	flag.Parse()

	profID, err := uuid.Parse(*professional)
	if err != nil {
		log.Fatalf("-professional must be a valid UUID: %v", err)
	}
	patID, err := uuid.Parse(*patient)
	if err != nil {
		log.Fatalf("-patient must be a valid UUID: %v", err)
	}
	creator := profID
	if *createdBy != "" {
		creator, err = uuid.Parse(*createdBy)
		if err != nil {
			log.Fatalf("-created-by must be a valid UUID: %v", err)
		}
	}

	start := time.Now().UTC().AddDate(0, 0, 1)
	start = time.Date(start.Year(), start.Month(), start.Day(), 10, 0, 0, 0, time.UTC)
	if *slot != "" {
		start, err = time.Parse(time.RFC3339, *slot)
		if err != nil {
			log.Fatalf("-slot must be RFC3339: %v", err)
		}
	}

	body, _ := json.Marshal(bookingBody{
		ProfessionalID:   profID.String(),
		PatientID:        patID.String(),
		StartTime:        start,
		DurationMinutes:  30,
		ConsultationType: "particular",
		Copay:            "5000",
		CreatedBy:        creator.String(),
	})

	log.Printf("firing %d concurrent bookings for professional %s at %s", *workers, profID, start)

	client := &http.Client{Timeout: 10 * time.Second}
	var res outcome
	var wg sync.WaitGroup

	ready := make(chan struct{})
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready

			resp, err := client.Post(*baseURL+"/appointments", "application/json", bytes.NewReader(body))
			if err != nil {
				atomic.AddInt64(&res.errors, 1)
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&res.admitted, 1)
			case http.StatusConflict:
				atomic.AddInt64(&res.conflicts, 1)
			default:
				atomic.AddInt64(&res.errors, 1)
			}
		}()
	}

	close(ready)
	wg.Wait()

	fmt.Printf("admitted=%d conflicts=%d errors=%d\n", res.admitted, res.conflicts, res.errors)
	if res.admitted == 1 {
		fmt.Println("OK: exactly one booking won the slot")
	} else {
		fmt.Printf("FAIL: expected exactly 1 admit, got %d\n", res.admitted)
	}
}
