package facility

import (
	"context"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"carematch/internal/agent"
)

var allowedSpecialties = map[string]bool{
	"general":        true,
	"cardiology":     true,
	"neurology":      true,
	"orthopedics":    true,
	"oncology":       true,
	"psychiatry":     true,
	"pediatrics":     true,
	"multispecialty": true,
}

var specialtyAliases = map[string]string{
	"multi_specialty":  "multispecialty",
	"multi_speciality": "multispecialty",
	"orthopaedics":     "orthopedics",
}

// Inferrer classifies a facility name into one of the allowed specialties
// via the completion provider, memoized in an injected process-lifetime
// cache. Any failure yields "general".
type Inferrer struct {
	ai    agent.CompletionClient
	cache *gocache.Cache
	log   *zap.Logger
}

func NewInferrer(ai agent.CompletionClient, cache *gocache.Cache, log *zap.Logger) *Inferrer {
	return &Inferrer{ai: ai, cache: cache, log: log}
}

func (i *Inferrer) Infer(ctx context.Context, facilityName string) string {
	key := strings.ToLower(strings.TrimSpace(facilityName))
	if key == "" {
		return "general"
	}

	if cached, ok := i.cache.Get("specialty:" + key); ok {
		return cached.(string)
	}

	prompt := fmt.Sprintf(`Classify the hospital into exactly one specialization from this strict list:
- general
- cardiology
- neurology
- orthopedics
- oncology
- psychiatry
- pediatrics
- multispecialty

Hospital name: %s

Return ONLY one word from the list.`, facilityName)

	specialty := "general"
	text, err := i.ai.Complete(ctx, prompt, 0.1)
	if err != nil {
		i.log.Warn("specialization inference failed",
			zap.String("facility", facilityName), zap.Error(err))
	} else {
		specialty = normalizeInferredSpecialty(text)
	}

	i.cache.Set("specialty:"+key, specialty, gocache.NoExpiration)
	return specialty
}

func normalizeInferredSpecialty(value string) string {
	normalized := normalizeSpecialty(value)
	if alias, ok := specialtyAliases[normalized]; ok {
		normalized = alias
	}
	if !allowedSpecialties[normalized] {
		return "general"
	}
	return normalized
}

// DisplaySpecialization renders a specialty tag for humans.
func DisplaySpecialization(value string) string {
	normalized := normalizeSpecialty(value)
	switch normalized {
	case "", "general", "general_medicine":
		return "General Medicine"
	case "multispecialty":
		return "Multi Speciality"
	}
	words := strings.Split(strings.ReplaceAll(normalized, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
