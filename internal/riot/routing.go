package riot

import (
	"fmt"
	"log"
	"strings"
)

// Routing regions used by the match-v5 and account-v1 endpoints
const (
	RoutingAmericas = "americas"
	RoutingEurope   = "europe"
	RoutingAsia     = "asia"

	defaultRouting = RoutingAmericas
)

var routingByPlatform = map[string]string{
	// Americas
	"na1": RoutingAmericas,
	"br1": RoutingAmericas,
	"la1": RoutingAmericas,
	"la2": RoutingAmericas,
	"oc1": RoutingAmericas,

	// Europe
	"euw1": RoutingEurope,
	"eun1": RoutingEurope,
	"tr1":  RoutingEurope,
	"ru":   RoutingEurope,
	"me1":  RoutingEurope,

	// Asia
	"kr":  RoutingAsia,
	"jp1": RoutingAsia,
	"ph2": RoutingAsia,
	"sg2": RoutingAsia,
	"th2": RoutingAsia,
	"tw2": RoutingAsia,
	"vn2": RoutingAsia,
}

// RoutingRegion maps a platform code (na1, euw1, kr, ...) to its routing region.
// Unknown codes fall back to americas with a warning.
func RoutingRegion(platform string) string {
	if routing, ok := routingByPlatform[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return routing
	}
	log.Printf("[Routing] Unknown platform %q, falling back to %s", platform, defaultRouting)
	return defaultRouting
}

// KnownPlatform reports whether the platform code is in the routing table
func KnownPlatform(platform string) bool {
	_, ok := routingByPlatform[strings.ToLower(strings.TrimSpace(platform))]
	return ok
}

// ParseRiotID splits "GameName#TagLine"
func ParseRiotID(riotID string) (gameName, tagLine string, err error) {
	parts := strings.SplitN(riotID, "#", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid Riot ID %q, expected 'GameName#TagLine'", riotID)
	}
	gameName, tagLine = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if gameName == "" || tagLine == "" {
		return "", "", fmt.Errorf("invalid Riot ID %q, expected 'GameName#TagLine'", riotID)
	}
	return gameName, tagLine, nil
}
