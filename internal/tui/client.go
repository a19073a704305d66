package tui

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// --- Message types ---

type statusMsg struct {
	Total      int  `json:"total"`
	Cursor     int  `json:"cursor"`
	Dispatched int  `json:"dispatched"`
	Skipped    int  `json:"skipped"`
	Ticks      int  `json:"ticks"`
	Waiting    bool `json:"waiting"`
	Remaining  int  `json:"remaining"`
}

type statusView statusMsg

type statusErrMsg struct{ err error }

type sseEvent struct {
	Type string
	Data []byte
}

type sseDisconnectedMsg struct{}

// --- Commands ---

type statusClient struct {
	apiURL string
	apiKey string
	http   *http.Client
}

func newStatusClient(apiURL, apiKey string) *statusClient {
	return &statusClient{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// fetchStatus GETs /status once.
func (c *statusClient) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		req, err := http.NewRequest(http.MethodGet, c.apiURL+"/status", nil)
		if err != nil {
			return statusErrMsg{err}
		}
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return statusErrMsg{err}
		}
		defer resp.Body.Close()

		var st statusMsg
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return statusErrMsg{err}
		}
		return st
	}
}

// subscribe connects to the SSE /events endpoint and feeds frames into ch.
// Returns sseDisconnectedMsg when the connection drops.
func (c *statusClient) subscribe(ch chan<- sseEvent) tea.Cmd {
	return func() tea.Msg {
		req, err := http.NewRequest(http.MethodGet, c.apiURL+"/events", nil)
		if err != nil {
			return sseDisconnectedMsg{}
		}
		c.authorize(req)

		// No timeout: the stream stays open for the life of the run.
		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			return sseDisconnectedMsg{}
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var current sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				current.Type = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				current.Data = []byte(strings.TrimPrefix(line, "data: "))
			case line == "":
				if current.Type != "" {
					ch <- current
				}
				current = sseEvent{}
			}
		}
		return sseDisconnectedMsg{}
	}
}

func (c *statusClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// waitForEvent delivers the next SSE frame from the channel to Update.
func waitForEvent(ch <-chan sseEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func pollAfter(d time.Duration, c *statusClient) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return c.fetchStatus()()
	})
}

func reconnectAfter(d time.Duration, c *statusClient, ch chan<- sseEvent) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return c.subscribe(ch)()
	})
}
