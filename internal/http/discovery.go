package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ClientDescriptor is the keycloak.json document handed to browser-side adapters.
// Field order is part of the wire format.
type ClientDescriptor struct {
	Realm            string `json:"realm"`
	AuthServerURL    string `json:"auth-server-url"`
	SSLRequired      string `json:"ssl-required"`
	Resource         string `json:"resource"`
	PublicClient     bool   `json:"public-client"`
	ConfidentialPort int    `json:"confidential-port"`
}

// NewClientDescriptor describes the public client browsers should use.
func NewClientDescriptor(realm, authServerURL, publicClientID string) ClientDescriptor {
	return ClientDescriptor{
		Realm:         realm,
		AuthServerURL: authServerURL,
		SSLRequired:   "external",
		Resource:      publicClientID,
		PublicClient:  true,
	}
}

// descriptorHandler serves a pre-rendered descriptor so every response is byte-identical.
type descriptorHandler struct {
	body []byte
}

func newDescriptorHandler(d ClientDescriptor) (*descriptorHandler, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal client descriptor: %w", err)
	}
	return &descriptorHandler{body: body}, nil
}

func (h *descriptorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(h.body); err != nil {
		return
	}
}
