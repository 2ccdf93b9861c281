package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
)

// Idempotency replays stored results for repeated mutation requests. A key
// reused with a different request hash is a conflict.
type Idempotency struct {
	Store  ports.IdempotencyStore
	Clock  ports.Clock
	TTL    time.Duration
	Logger *slog.Logger
}

// HashRequest fingerprints a request payload for idempotency comparison.
func HashRequest(payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// RunIdempotent executes exec at most once per key. The returned bool reports
// a replayed result.
func RunIdempotent[T any](
	ctx context.Context,
	idem Idempotency,
	key string,
	request any,
	exec func(context.Context) (T, error),
) (T, bool, error) {
	var zero T
	key = strings.TrimSpace(key)
	if key == "" {
		return zero, false, domainerrors.ErrIdempotencyKeyRequired
	}
	if idem.Store == nil {
		out, err := exec(ctx)
		return out, false, err
	}
	logger := ResolveLogger(idem.Logger)
	requestHash, err := HashRequest(request)
	if err != nil {
		return zero, false, err
	}

	now := idem.now()
	record, found, err := idem.Store.Get(ctx, key, now)
	if err != nil {
		logger.Error("governance idempotency lookup failed",
			"event", "governance_idempotency_lookup_failed",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"idempotency_key", key,
			"error", err.Error(),
		)
		return zero, false, err
	}
	if found {
		if record.RequestHash != requestHash {
			logger.Warn("governance idempotency conflict",
				"event", "governance_idempotency_conflict",
				"module", "association-governance/governance-engine",
				"layer", "application",
				"idempotency_key", key,
			)
			return zero, false, domainerrors.ErrIdempotencyConflict
		}
		var replay T
		if err := json.Unmarshal(record.Payload, &replay); err != nil {
			return zero, false, err
		}
		return replay, true, nil
	}

	out, err := exec(ctx)
	if err != nil {
		return zero, false, err
	}
	// exec has committed; its result stands even if the replay record is lost.
	if err := idem.remember(ctx, key, requestHash, out, now); err != nil {
		logger.Warn("governance idempotency record failed",
			"event", "governance_idempotency_record_failed",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"idempotency_key", key,
			"error", err.Error(),
		)
		return out, false, nil
	}
	logger.Debug("governance idempotent mutation committed",
		"event", "governance_idempotent_mutation_committed",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"idempotency_key", key,
	)
	return out, false, nil
}

func (i Idempotency) remember(ctx context.Context, key string, requestHash string, out any, now time.Time) error {
	payload, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return i.Store.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(i.ttl()),
	})
}

func (i Idempotency) now() time.Time {
	if i.Clock == nil {
		return time.Now().UTC()
	}
	return i.Clock.Now().UTC()
}

func (i Idempotency) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}
