package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// Task is one study-task descriptor for a free period.
type Task struct {
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Reason      string `json:"reason"`
}

// Client calls the external suggestion service. With Skip set it serves
// canned tasks instead, so dev environments work without the service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // generation can take a while
		},
	}
}

// Tasks requests up to count task suggestions for a student with the given
// interests. Service failure falls back to canned tasks rather than erroring:
// the dashboard should always have something to show.
func (c *Client) Tasks(ctx context.Context, interests string, count int) ([]Task, error) {
	if count <= 0 {
		count = 3
	}
	if c.Skip {
		return cannedTasks(count), nil
	}

	body, _ := json.Marshal(map[string]any{
		"interests": interests,
		"count":     count,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/suggest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return cannedTasks(count), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return cannedTasks(count), nil
	}

	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("suggest: decode response failed: %w", err)
	}
	if len(out.Tasks) == 0 {
		return cannedTasks(count), nil
	}
	if len(out.Tasks) > count {
		out.Tasks = out.Tasks[:count]
	}
	return out.Tasks, nil
}

// Health checks if the suggestion service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("suggest service unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("suggest service unhealthy: %s", resp.Status)
	}
	return nil
}

// cannedTasks returns a random sample of the built-in task list.
func cannedTasks(count int) []Task {
	if count > len(builtinTasks) {
		count = len(builtinTasks)
	}
	perm := rand.Perm(len(builtinTasks))
	out := make([]Task, 0, count)
	for _, i := range perm[:count] {
		out = append(out, builtinTasks[i])
	}
	return out
}

var builtinTasks = []Task{
	{Title: "Review class notes from last week", TimeMinutes: 10, Reason: "Reinforce learning"},
	{Title: "Solve 5 quick math problems", TimeMinutes: 15, Reason: "Practice makes perfect"},
	{Title: "Read a short educational article", TimeMinutes: 12, Reason: "Expand knowledge"},
	{Title: "Organize your study materials", TimeMinutes: 8, Reason: "Stay organized"},
	{Title: "Practice vocabulary words", TimeMinutes: 10, Reason: "Build language skills"},
	{Title: "Review homework assignments", TimeMinutes: 15, Reason: "Stay on track"},
	{Title: "Create flashcards for upcoming test", TimeMinutes: 18, Reason: "Prepare for exams"},
	{Title: "Summarize today's lesson", TimeMinutes: 12, Reason: "Reinforce understanding"},
	{Title: "Plan your study schedule", TimeMinutes: 8, Reason: "Time management"},
	{Title: "Review previous test questions", TimeMinutes: 15, Reason: "Learn from mistakes"},
	{Title: "Draw a mind map of a topic", TimeMinutes: 12, Reason: "Visual learning"},
	{Title: "Write a short reflection", TimeMinutes: 10, Reason: "Critical thinking"},
}
