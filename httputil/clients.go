package httputil

import (
	"log"
	"net/http"
	"time"
)

const slowRequest = 5 * time.Second

type Clients struct {
	API *http.Client // base transport under the OAuth2 token source
}

func NewClients(timeout time.Duration) *Clients {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4

	return &Clients{
		API: &http.Client{
			Timeout:   timeout,
			Transport: &slowLogger{next: transport, threshold: slowRequest},
		},
	}
}

// slowLogger warns about round trips slower than threshold.
type slowLogger struct {
	next      http.RoundTripper
	threshold time.Duration
}

func (s *slowLogger) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := s.next.RoundTrip(req)
	if elapsed := time.Since(start); elapsed > s.threshold {
		log.Printf("Warning: slow request %s %s took %s", req.Method, req.URL.Path, elapsed.Round(time.Millisecond))
	}
	return resp, err
}
