package pow

import (
	"strings"
	"time"
)

// Policy holds the pure threshold logic deciding when a client must start
// solving challenges. It carries no state; pair it with an AbuseTracker.
type Policy struct {
	// Threshold is the request count within Window that triggers the gate.
	Threshold int
	// BotThreshold replaces Threshold for user agents matching BotPatterns.
	BotThreshold int
	Window       time.Duration
	Cooldown     time.Duration
	BotPatterns  []string
}

var defaultBotPatterns = []string{
	"bot", "crawl", "spider", "curl", "wget", "python-requests", "scrapy", "headless",
}

func DefaultPolicy(threshold, botThreshold int, window, cooldown time.Duration) Policy {
	return Policy{
		Threshold:    threshold,
		BotThreshold: botThreshold,
		Window:       window,
		Cooldown:     cooldown,
		BotPatterns:  defaultBotPatterns,
	}
}

// ThresholdFor returns the applicable request threshold for a user agent.
func (p Policy) ThresholdFor(userAgent string) int {
	ua := strings.ToLower(userAgent)
	for _, pattern := range p.BotPatterns {
		if strings.Contains(ua, pattern) {
			return p.BotThreshold
		}
	}
	return p.Threshold
}

// ClientKey builds the tracker key for one client.
func ClientKey(ip, userAgent string) string {
	return ip + "|" + userAgent
}
