package proxy

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// заголовки, которые передаются в upstream как есть
var forwardHeaders = []string{"Content-Type", "Accept", "Authorization", "X-Session-ID"}

// hop-by-hop заголовки ответа не копируются
var skipResponseHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
}

// ============================================================
// Proxy Handler
// ============================================================

type Proxy struct {
	client *http.Client
}

func New(timeout time.Duration) *Proxy {
	return &Proxy{client: &http.Client{Timeout: timeout}}
}

// To проксирует запрос на фиксированный URL.
func (p *Proxy) To(targetURL string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.Forward(c, targetURL+query(c))
	}
}

// Prefix проксирует всё под префиксом: /api/v1/editor/sessions/1 -> base + /sessions/1.
func (p *Proxy) Prefix(baseURL, strip string) fiber.Handler {
	return func(c fiber.Ctx) error {
		rest := strings.TrimPrefix(c.Path(), strip)
		if rest == "" {
			rest = "/"
		}
		return p.Forward(c, baseURL+rest+query(c))
	}
}

// Forward проксирует запрос по переданному URL (для динамических путей).
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] Request: %s %s", c.Method(), c.Path())
	log.Printf("[PROXY] Content-Length: %d", len(c.Body()))
	log.Printf("[PROXY] Forwarding to: %s", targetURL)

	req, err := http.NewRequest(c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "proxy failed"})
	}

	for _, key := range forwardHeaders {
		if v := c.Get(key); v != "" {
			req.Header.Set(key, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(502).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func query(c fiber.Ctx) string {
	qs := c.Request().URI().QueryString()
	if len(qs) == 0 {
		return ""
	}
	return "?" + string(qs)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(502).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 && !skipResponseHeaders[key] {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
