package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soracho/isomap/llm"
	"github.com/soracho/isomap/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient("test-token", "google/gemini-2.5-flash-image-preview", `Isometric style.\n`, "maps-key")
	if err != nil {
		t.Fatal(err)
	}
	client.apiURL = srv.URL
	return client
}

func respond(t *testing.T, w http.ResponseWriter, msg responseMessage) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(chatResponse{Choices: []choice{{Message: msg}}}); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateImageResult(t *testing.T) {
	var gotReq chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		respond(t, w, responseMessage{
			Images: []contentPart{{
				Type:     "image_url",
				ImageURL: &imageURL{URL: "data:image/png;base64,aGVsbG8="},
			}},
		})
	})

	coords := &models.LatLng{Lat: 35.6812, Lng: 139.7671}
	result, err := client.Generate(context.Background(), "東京駅", coords)
	if err != nil {
		t.Fatal(err)
	}

	if result.Type != models.ResultTypeImage {
		t.Fatalf("expected image result, got %q", result.Type)
	}
	if result.MimeType != "image/png" {
		t.Fatalf("expected image/png, got %q", result.MimeType)
	}
	if result.Data != "aGVsbG8=" {
		t.Fatalf("expected bare base64 payload, got %q", result.Data)
	}
	if strings.Contains(result.Data, "data:") {
		t.Fatal("data URI prefix must be stripped")
	}

	// Request shape: expanded base prompt + static map image part.
	parts := gotReq.Messages[0].Content
	if len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(parts))
	}
	if !strings.HasPrefix(parts[0].Text, "Isometric style.\n") {
		t.Fatalf("base prompt newlines not expanded: %q", parts[0].Text)
	}
	if !strings.HasSuffix(parts[0].Text, "東京駅") {
		t.Fatalf("user prompt not appended: %q", parts[0].Text)
	}
	if parts[1].ImageURL == nil || !strings.Contains(parts[1].ImageURL.URL, "center=35.6812,139.7671") {
		t.Fatalf("unexpected static map part: %+v", parts[1])
	}
}

func TestGenerateTextResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, responseMessage{Content: "その場所は生成できません"})
	})

	result, err := client.Generate(context.Background(), "somewhere", &models.LatLng{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Type != models.ResultTypeText {
		t.Fatalf("expected text result, got %q", result.Type)
	}
	if result.Content != "その場所は生成できません" {
		t.Fatalf("content not passed through verbatim: %q", result.Content)
	}
}

func TestGenerateEmptyReplyFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, responseMessage{})
	})

	result, err := client.Generate(context.Background(), "somewhere", &models.LatLng{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Type != models.ResultTypeText || result.Content != llm.FallbackMessage {
		t.Fatalf("expected fallback text result, got %+v", result)
	}
}

func TestGenerateQuotaExhausted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	_, err := client.Generate(context.Background(), "somewhere", &models.LatLng{})
	if !errors.Is(err, models.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Generate(context.Background(), "somewhere", &models.LatLng{})
	var upstreamErr *models.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", upstreamErr.Status)
	}
}
