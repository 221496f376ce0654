package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rockspotter/logger"
	"rockspotter/models"

	"github.com/redis/go-redis/v9"
)

const (
	identificationCacheTTL = 24 * time.Hour
	maxIdentifyImageBytes  = 10 << 20
)

// Identification is the AI's best guess about a rock photo
type Identification struct {
	RockType           string   `json:"rockType"`
	Category           string   `json:"category"`
	Confidence         float64  `json:"confidence"`
	MineralComposition []string `json:"mineralComposition"`
	Description        string   `json:"description"`
	GeologicalAge      string   `json:"geologicalAge"`
	CommonLocations    []string `json:"commonLocations"`
	Hardness           string   `json:"hardness"`
	Uses               []string `json:"uses"`
	IsDemo             bool     `json:"isDemo"`
	Note               string   `json:"note,omitempty"`
}

const identifyPrompt = `You are a field geologist. Identify the rock or mineral in this photo.
Reply with a single JSON object with these fields:
"rockType" (common name, e.g. "Granite"),
"category" (one of: %s),
"confidence" (0 to 1),
"mineralComposition" (array of strings),
"description" (two sentences),
"geologicalAge", "hardness" (Mohs scale),
"commonLocations" (array of strings), "uses" (array of strings).`

// RockIdentifier identifies rocks from photos with Gemini, caching results in Redis.
// Without a model, or when the model fails, it answers with demo data.
type RockIdentifier struct {
	model  visionModel
	cache  *redis.Client
	client *http.Client
}

var rockIdentifier *RockIdentifier

// InitRockIdentifier configures Gemini when apiKey is set. cache may be nil.
func InitRockIdentifier(apiKey, model string, cache *redis.Client) error {
	rockIdentifier = &RockIdentifier{cache: cache, client: &http.Client{Timeout: 15 * time.Second}}
	if apiKey == "" {
		logger.Warning("GEMINI_API_KEY not set, rock identification returns demo data")
		return nil
	}
	client, err := initGemini(apiKey)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	rockIdentifier.model = &geminiVision{client: client, model: model}
	return nil
}

func GetRockIdentifier() *RockIdentifier {
	return rockIdentifier
}

// Identify classifies the image at imageRef, an http(s) URL or a base64 data URL
func (r *RockIdentifier) Identify(ctx context.Context, imageRef string) (*Identification, error) {
	imageRef = strings.TrimSpace(imageRef)
	if imageRef == "" {
		return nil, invalid("image is required")
	}
	if r.model == nil {
		return demoIdentification("AI identification is not configured. Using demo data."), nil
	}

	key := identificationCacheKey(imageRef)
	if cached := r.cached(ctx, key); cached != nil {
		return cached, nil
	}

	image, mimeType, err := r.loadImage(ctx, imageRef)
	if err != nil {
		return nil, invalid("could not read image: %v", err)
	}

	text, err := r.model.Describe(ctx, fmt.Sprintf(identifyPrompt, strings.Join(models.RockTypes, ", ")), image, mimeType)
	if err != nil {
		logger.Warning("Rock identification failed: %v", err)
		return demoIdentification("AI identification is temporarily unavailable. Using demo data."), nil
	}

	var result Identification
	if err := json.Unmarshal([]byte(text), &result); err != nil || result.RockType == "" {
		logger.Warning("Rock identification returned unparseable output: %v", err)
		return demoIdentification("AI identification returned an unexpected answer. Using demo data."), nil
	}
	result.Category = strings.ToLower(strings.TrimSpace(result.Category))
	if !models.ValidRockType(result.Category) {
		result.Category = "other"
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		result.Confidence = 0
	}

	r.store(ctx, key, &result)
	return &result, nil
}

func (r *RockIdentifier) cached(ctx context.Context, key string) *Identification {
	if r.cache == nil {
		return nil
	}
	data, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warning("Identification cache read failed: %v", err)
		}
		return nil
	}
	var result Identification
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

func (r *RockIdentifier) store(ctx context.Context, key string, result *Identification) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, identificationCacheTTL).Err(); err != nil {
		logger.Warning("Identification cache write failed: %v", err)
	}
}

func (r *RockIdentifier) loadImage(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return nil, "", errors.New("image must be an http(s) URL or a data URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIdentifyImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxIdentifyImageBytes {
		return nil, "", errors.New("image is larger than 10MB")
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// decodeDataURL parses data:<mime>;base64,<payload>
func decodeDataURL(ref string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", errors.New("only base64 data URLs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(data) > maxIdentifyImageBytes {
		return nil, "", errors.New("image is larger than 10MB")
	}
	mimeType := strings.TrimSuffix(header, ";base64")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

func identificationCacheKey(imageRef string) string {
	sum := sha256.Sum256([]byte(imageRef))
	return "ai:identify:" + hex.EncodeToString(sum[:])
}

func demoIdentification(note string) *Identification {
	return &Identification{
		RockType:           "Granite",
		Category:           "igneous",
		Confidence:         0.85,
		MineralComposition: []string{"Quartz", "Feldspar", "Mica"},
		Description:        "This appears to be granite, a common igneous rock formed from cooled magma. It contains visible crystals of quartz, feldspar and mica.",
		GeologicalAge:      "Variable, typically millions of years old",
		CommonLocations:    []string{"Mountains", "Continental crust", "Plutonic environments"},
		Hardness:           "6-7 on Mohs scale",
		Uses:               []string{"Construction", "Countertops", "Monuments"},
		IsDemo:             true,
		Note:               note,
	}
}
