package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to an OpenAI-compatible completion/embedding API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	chatModel      string
	embeddingModel string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var ErrUpstream = errors.New("ai upstream error")

func NewClient(httpClient *http.Client, baseURL, apiKey, chatModel, embeddingModel string) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed input is empty")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.embeddingModel,
		"input": strings.ReplaceAll(text, "\n", " "),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	resp, err := c.post(ctx, "/embeddings", body, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var decoded struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrUpstream)
	}

	return decoded.Data[0].Embedding, nil
}

// ChatStream sends a chat completion request and invokes emit for every
// content delta until the stream ends or ctx is cancelled.
func (c *Client) ChatStream(ctx context.Context, system string, messages []Message, emit func(delta string) error) error {
	payload := make([]Message, 0, len(messages)+1)
	if system != "" {
		payload = append(payload, Message{Role: "system", Content: system})
	}
	payload = append(payload, messages...)

	body, err := json.Marshal(map[string]any{
		"model":    c.chatModel,
		"messages": payload,
		"stream":   true,
	})
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	resp, err := c.post(ctx, "/chat/completions", body, true)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		if err := emit(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read chat stream: %w", err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, stream bool) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("ai api key is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrUpstream, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return resp, nil
}
