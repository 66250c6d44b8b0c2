package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/medex-ai/medex/internal/core/domain"
)

var errDummy = errors.New("backend down")

func TestClassifyUserTypeEndpoint(t *testing.T) {
	handler := newTestHandler(t, testHandlerOptions{})

	res := doRequest(handler, http.MethodPost, "/v1/classify/user-type",
		strings.NewReader(`{"query":"paciente de 45 años con disnea, diagnóstico diferencial y manejo de la vía aérea"}`),
		"application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}

	var got domain.DetectionResult
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.UserType != domain.UserProfessional {
		t.Fatalf("user type = %q, want professional", got.UserType)
	}
	if got.Confidence <= 0 {
		t.Fatalf("confidence = %v, want > 0", got.Confidence)
	}
}

func TestClassifyEmergencyEndpoint(t *testing.T) {
	handler := newTestHandler(t, testHandlerOptions{})

	res := doRequest(handler, http.MethodPost, "/v1/classify/emergency",
		strings.NewReader(`{"query":"tengo dolor en el pecho y dificultad para respirar"}`),
		"application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}

	var got domain.EmergencyResult
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.IsEmergency {
		t.Fatalf("expected emergency for chest pain query")
	}
	if got.Level != domain.EmergencyCritical {
		t.Fatalf("level = %q, want critical", got.Level)
	}
}

func TestClassifyEndpointsRequireQuery(t *testing.T) {
	handler := newTestHandler(t, testHandlerOptions{})

	for _, path := range []string{"/v1/classify/user-type", "/v1/classify/emergency"} {
		res := doRequest(handler, http.MethodPost, path, strings.NewReader(`{"query":""}`), "application/json")
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", path, res.Code)
		}
	}
}
