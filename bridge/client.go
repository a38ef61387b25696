// Package bridge reconciles local visitor state with the remote
// personalization service. Every outbound call is best effort: failures are
// logged and reported as a delivery status, never propagated.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/paperbridge/bookstore-go/config"
	"github.com/paperbridge/bookstore-go/models"
)

// Handle is the memoized connection to the personalization service
type Handle struct {
	ProjectID   string
	Environment string
	token       string
	baseURL     string
	client      *http.Client
}

// Service owns the lazily-initialized personalization handle. Initialization
// runs at most once even under concurrent first-time callers.
type Service struct {
	once   sync.Once
	handle *Handle

	projectID   string
	environment string
	token       string
	baseURL     string
	client      *http.Client
}

// NewService creates a bridge from environment configuration
func NewService() *Service {
	return &Service{
		projectID:   config.PersonalizeProjectID,
		environment: config.PersonalizeEnvironment,
		token:       config.PersonalizeToken,
		baseURL:     config.PersonalizeBaseURL,
		client:      &http.Client{Timeout: config.PersonalizeTimeout},
	}
}

// NewServiceWith creates a bridge with explicit wiring, used by tests to
// substitute a fake endpoint
func NewServiceWith(baseURL, projectID, environment, token string, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: config.PersonalizeTimeout}
	}
	return &Service{
		projectID:   projectID,
		environment: environment,
		token:       token,
		baseURL:     baseURL,
		client:      client,
	}
}

// GetInstance returns the memoized handle, or nil (with a warning) when the
// project identifier is not configured. Never panics.
func (s *Service) GetInstance() *Handle {
	s.once.Do(func() {
		if s.projectID == "" {
			log.Printf("WARNING: personalize project ID not configured -- personalization disabled")
			return
		}
		s.handle = &Handle{
			ProjectID:   s.projectID,
			Environment: s.environment,
			token:       s.token,
			baseURL:     s.baseURL,
			client:      s.client,
		}
	})
	return s.handle
}

// PushAttributes sends the visitor's attribute bundle
func (s *Service) PushAttributes(ctx context.Context, visitorID string, attributes map[string]any) models.DeliveryStatus {
	handle := s.GetInstance()
	if handle == nil {
		return models.DeliveryDegraded
	}

	body := map[string]any{"attributes": attributes}
	if err := handle.post(ctx, "/user-attributes", visitorID, body); err != nil {
		log.Printf("ERROR: failed to push attributes for %s: %v", visitorID, err)
		return models.DeliveryFailedSoft
	}
	return models.DeliverySent
}

// TriggerImpression records that an experience variant was shown
func (s *Service) TriggerImpression(ctx context.Context, visitorID, experienceID string) models.DeliveryStatus {
	handle := s.GetInstance()
	if handle == nil {
		return models.DeliveryDegraded
	}

	body := map[string]any{"type": "IMPRESSION", "experienceShortUid": experienceID}
	if err := handle.post(ctx, "/events", visitorID, body); err != nil {
		log.Printf("ERROR: failed to trigger impression %s for %s: %v", experienceID, visitorID, err)
		return models.DeliveryFailedSoft
	}
	return models.DeliverySent
}

// TriggerEvent records a custom conversion event
func (s *Service) TriggerEvent(ctx context.Context, visitorID, eventKey string) models.DeliveryStatus {
	handle := s.GetInstance()
	if handle == nil {
		return models.DeliveryDegraded
	}

	body := map[string]any{"type": "EVENT", "eventKey": eventKey}
	if err := handle.post(ctx, "/events", visitorID, body); err != nil {
		log.Printf("ERROR: failed to trigger event %s for %s: %v", eventKey, visitorID, err)
		return models.DeliveryFailedSoft
	}
	return models.DeliverySent
}

// GetVariant fetches the active variant selector for the visitor. Returns
// ok=false on any failure.
func (s *Service) GetVariant(ctx context.Context, visitorID string) (string, bool) {
	handle := s.GetInstance()
	if handle == nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, handle.baseURL+"/manifest", nil)
	if err != nil {
		log.Printf("ERROR: failed to build manifest request: %v", err)
		return "", false
	}
	handle.setHeaders(req, visitorID)

	resp, err := handle.client.Do(req)
	if err != nil {
		log.Printf("ERROR: manifest request failed for %s: %v", visitorID, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("ERROR: manifest request returned %d for %s", resp.StatusCode, visitorID)
		return "", false
	}

	var manifest struct {
		ActiveVariants map[string]*int `json:"activeVariants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		log.Printf("ERROR: failed to decode manifest for %s: %v", visitorID, err)
		return "", false
	}

	selector := encodeVariantSelector(manifest.ActiveVariants)
	if selector == "" {
		return "", false
	}
	return selector, true
}

// encodeVariantSelector flattens the active variant map into the opaque
// selector token appended to page requests, e.g. "0_2,3_null"
func encodeVariantSelector(activeVariants map[string]*int) string {
	if len(activeVariants) == 0 {
		return ""
	}

	experiences := make([]string, 0, len(activeVariants))
	for experience := range activeVariants {
		experiences = append(experiences, experience)
	}
	sort.Strings(experiences)

	var buf bytes.Buffer
	for i, experience := range experiences {
		if i > 0 {
			buf.WriteString(",")
		}
		if variant := activeVariants[experience]; variant == nil {
			fmt.Fprintf(&buf, "%s_null", experience)
		} else {
			fmt.Fprintf(&buf, "%s_%d", experience, *variant)
		}
	}
	return buf.String()
}

func (h *Handle) post(ctx context.Context, path, visitorID string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	h.setHeaders(req, visitorID)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("service returned %d", resp.StatusCode)
	}
	return nil
}

func (h *Handle) setHeaders(req *http.Request, visitorID string) {
	req.Header.Set("x-project-uid", h.ProjectID)
	req.Header.Set("x-cs-personalize-user-uid", visitorID)
	if h.Environment != "" {
		req.Header.Set("x-cs-env", h.Environment)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
}
