package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"weighttrend/internal/domain"
)

// Model is a fitted per-user regression model. One live instance per user
// at a time, owned by the Trainer's cache.
type Model struct {
	UserID      int64
	Fingerprint string
	TrainedAt   time.Time
	Naive       bool

	constant float64
	ens      *ensemble
	stats    FeatureStats
}

// Stats returns the feature aggregates the model was trained with.
func (m *Model) Stats() FeatureStats { return m.stats }

func (m *Model) predictRow(row []float64) float64 {
	if m.Naive || m.ens == nil {
		return m.constant
	}
	return m.ens.predict(row)
}

// NewNaiveModel builds the flat-line fallback: every future day predicts
// the last known weight. Used when training fails numerically.
func NewNaiveModel(userID int64, observations []domain.Observation) *Model {
	obs := sortedByTime(observations)
	m := &Model{
		UserID:      userID,
		Fingerprint: Fingerprint(observations),
		TrainedAt:   time.Now(),
		Naive:       true,
	}
	if len(obs) > 0 {
		m.stats = buildStats(obs)
		m.constant = m.stats.LastWeight
	}
	return m
}

// Fingerprint digests an observation set. Any traversal order that
// preserves timestamps produces the same digest, so an unchanged history
// never retrains.
func Fingerprint(observations []domain.Observation) string {
	obs := sortedByTime(observations)
	h := sha256.New()
	for _, o := range obs {
		fmt.Fprintf(h, "%d|%.4f|%d\n", o.RecordedAt.Unix(), o.Weight, o.MinutesSinceMeal)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Trainer fits models and caches them per user, keyed by the fingerprint
// of the training data. The cache is process-scoped; entries are replaced
// when the fingerprint changes and never persisted.
type Trainer struct {
	builder *Builder
	hp      Hyperparameters
	models  *gocache.Cache
	group   singleflight.Group
	log     *logrus.Entry

	trainings atomic.Int64
}

// NewTrainer creates a Trainer with the given builder and fixed
// hyperparameters. A zero Hyperparameters value falls back to the
// defaults.
func NewTrainer(builder *Builder, hp Hyperparameters, log *logrus.Entry) *Trainer {
	if hp == (Hyperparameters{}) {
		hp = DefaultHyperparameters()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Trainer{
		builder: builder,
		hp:      hp,
		models:  gocache.New(gocache.NoExpiration, 0),
		log:     log,
	}
}

// GetOrTrain returns the cached model for userID when the observation
// fingerprint matches, otherwise trains a replacement. Concurrent calls
// for the same (user, fingerprint) share a single training run; a stale
// or partial model is never visible.
func (t *Trainer) GetOrTrain(ctx context.Context, userID int64, observations []domain.Observation) (*Model, error) {
	fp := Fingerprint(observations)
	key := strconv.FormatInt(userID, 10)

	if m, ok := t.cached(key, fp); ok {
		return m, nil
	}

	v, err, _ := t.group.Do(key+":"+fp, func() (any, error) {
		if m, ok := t.cached(key, fp); ok {
			return m, nil
		}
		return t.train(ctx, userID, fp, observations)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

func (t *Trainer) cached(key, fingerprint string) (*Model, bool) {
	v, ok := t.models.Get(key)
	if !ok {
		return nil, false
	}
	m := v.(*Model)
	if m.Fingerprint != fingerprint {
		return nil, false
	}
	return m, true
}

func (t *Trainer) train(ctx context.Context, userID int64, fingerprint string, observations []domain.Observation) (*Model, error) {
	start := time.Now()

	set, err := t.builder.Build(observations)
	if err != nil {
		return nil, err
	}
	ens, err := fitEnsemble(set.X, set.Y, t.hp)
	if err != nil {
		return nil, err
	}

	m := &Model{
		UserID:      userID,
		Fingerprint: fingerprint,
		TrainedAt:   time.Now(),
		constant:    set.Stats.LastWeight,
		ens:         ens,
		stats:       set.Stats,
	}
	t.models.Set(strconv.FormatInt(userID, 10), m, gocache.NoExpiration)
	t.trainings.Add(1)

	t.log.WithFields(logrus.Fields{
		"user":         userID,
		"observations": len(observations),
		"trees":        len(ens.trees),
		"took":         time.Since(start),
	}).Debug("trained weight model")
	return m, nil
}

// Invalidate drops the cached model for userID. Called after record
// mutations so the next forecast retrains against the new history.
func (t *Trainer) Invalidate(userID int64) {
	t.models.Delete(strconv.FormatInt(userID, 10))
}

// Trainings reports how many fits have run since process start.
func (t *Trainer) Trainings() int64 {
	return t.trainings.Load()
}
