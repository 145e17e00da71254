package resilience

import "time"

// Policy is the retry and circuit breaker setup for one recognizer backend.
type Policy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration

	Breaker             bool
	BreakerMinCalls     uint32
	BreakerFailureRatio float64
	BreakerCooldown     time.Duration
	BreakerProbeCalls   uint32
}

// PolicyFor returns the defaults for an OCR backend. tesseract runs in
// process and gets a single attempt without a breaker. A vision model served
// by ollama answers slowly, so it backs off longer and trips sooner than the
// pix2tex HTTP service.
func PolicyFor(backend string) Policy {
	switch backend {
	case "tesseract":
		return Policy{Attempts: 1}
	case "ollama":
		return Policy{
			Attempts:       2,
			InitialBackoff: time.Second,
			MaxBackoff:     4 * time.Second,
			Multiplier:     2,

			Breaker:             true,
			BreakerMinCalls:     3,
			BreakerFailureRatio: 0.5,
			BreakerCooldown:     time.Minute,
			BreakerProbeCalls:   1,
		}
	default:
		return Policy{
			Attempts:       2,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     time.Second,
			Multiplier:     2,

			Breaker:             true,
			BreakerMinCalls:     5,
			BreakerFailureRatio: 0.5,
			BreakerCooldown:     30 * time.Second,
			BreakerProbeCalls:   2,
		}
	}
}

// Override applies operator settings from OCR_RETRY_MAX_ATTEMPTS and
// OCR_BREAKER_ENABLED. A non-positive attempt count keeps the backend default.
// Disabling the breaker always wins; enabling it cannot add one to a backend
// that has none.
func (p Policy) Override(attempts int, breaker bool) Policy {
	if attempts > 0 {
		p.Attempts = attempts
	}
	if !breaker {
		p.Breaker = false
	}
	return p
}

func (p Policy) normalize() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.AttemptTimeout < 0 {
		p.AttemptTimeout = 0
	}

	if !p.Breaker {
		return p
	}
	if p.BreakerMinCalls == 0 {
		p.BreakerMinCalls = 1
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = 0.5
	}
	if p.BreakerCooldown <= 0 {
		p.BreakerCooldown = 30 * time.Second
	}
	if p.BreakerProbeCalls == 0 {
		p.BreakerProbeCalls = 1
	}
	return p
}
