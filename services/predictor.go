package services

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"crime-analytics/models"
	"crime-analytics/observability"
	"crime-analytics/storage"
	"crime-analytics/utils"

	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultPredictionYear is used when a request carries no usable year
	DefaultPredictionYear = 2015

	testFraction = 0.2
	splitSeed    = 42
)

// trainedModel is one crime type's regressor with the encoders fitted alongside it
type trainedModel struct {
	crimeType string
	states    *LabelEncoder
	districts *LabelEncoder
	regressor *LinearRegressor
	samples   int
	mae       float64
	r2        float64
	trainedAt time.Time
}

func (m *trainedModel) artifact() *models.ModelArtifact {
	return &models.ModelArtifact{
		CrimeType:       m.crimeType,
		StateClasses:    m.states.Classes(),
		DistrictClasses: m.districts.Classes(),
		Params:          m.regressor.Params(),
		Samples:         m.samples,
		MAE:             m.mae,
		R2:              m.r2,
		TrainedAt:       m.trainedAt,
	}
}

func modelFromArtifact(a *models.ModelArtifact) *trainedModel {
	return &trainedModel{
		crimeType: a.CrimeType,
		states:    NewLabelEncoder(a.StateClasses),
		districts: NewLabelEncoder(a.DistrictClasses),
		regressor: NewLinearRegressor(a.Params),
		samples:   a.Samples,
		mae:       a.MAE,
		r2:        a.R2,
		trainedAt: a.TrainedAt,
	}
}

// predict encodes the inputs and evaluates the regressor
func (m *trainedModel) predict(state, district string, year int) (float64, error) {
	s, err := m.states.Transform(state)
	if err != nil {
		return 0, fmt.Errorf("state: %w", err)
	}
	d, err := m.districts.Transform(district)
	if err != nil {
		return 0, fmt.Errorf("district: %w", err)
	}
	return m.regressor.Predict([]float64{float64(s), float64(d), float64(year)})
}

func (m *trainedModel) report() *TrainingReport {
	return &TrainingReport{CrimeType: m.crimeType, Samples: m.samples, MAE: m.mae, R2: m.r2}
}

// TrainingReport summarizes one training run
type TrainingReport struct {
	CrimeType string
	Samples   int
	MAE       float64
	R2        float64
	Persisted bool
	Duration  time.Duration
}

// PredictionService forecasts crime counts. Models are trained on first use per
// crime type; concurrent requests for the same crime type share one training run.
type PredictionService struct {
	dataset *storage.Dataset
	store   storage.ArtifactStore
	logger  *utils.Logger
	metrics *observability.Metrics

	mu             sync.RWMutex
	models         map[string]*trainedModel
	artifactLoaded bool
	training       singleflight.Group

	// persistMu serializes artifact writes; persistedType is the crime type
	// the artifact holds, empty until known
	persistMu     sync.Mutex
	persistedType string
}

// NewPredictionService creates a new PredictionService. metrics may be nil.
func NewPredictionService(ds *storage.Dataset, store storage.ArtifactStore, logger *utils.Logger, metrics *observability.Metrics) *PredictionService {
	return &PredictionService{
		dataset: ds,
		store:   store,
		logger:  logger,
		metrics: metrics,
		models:  make(map[string]*trainedModel),
	}
}

// Train fits a model for crimeType and caches it. The artifact is written when
// none exists yet or when it already holds crimeType, so only the first trained
// crime type is persisted and retraining it keeps the file current.
func (s *PredictionService) Train(crimeType string) (*TrainingReport, error) {
	v, err, _ := s.training.Do(crimeType, func() (interface{}, error) {
		return s.train(crimeType)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TrainingReport), nil
}

func (s *PredictionService) train(crimeType string) (*TrainingReport, error) {
	start := time.Now()
	model, err := s.fit(crimeType)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	s.metrics.ObserveTraining(crimeType, elapsed)

	report := model.report()
	report.Duration = elapsed

	s.mu.Lock()
	s.models[crimeType] = model
	s.mu.Unlock()

	persisted, err := s.persist(model)
	if err != nil {
		s.logger.Warn("Model for %s trained but not persisted: %v", crimeType, err)
	}
	report.Persisted = persisted

	s.logger.Info("Model trained for %s - MAE: %.2f, R2: %.2f (%d samples, %v)",
		crimeType, report.MAE, report.R2, report.Samples, elapsed.Round(time.Millisecond))
	return report, nil
}

// persist writes the model's artifact unless the store holds another crime type
func (s *PredictionService) persist(model *trainedModel) (bool, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.persistedType == "" && s.store.Exists() {
		existing, err := s.store.Load()
		if err != nil {
			return false, fmt.Errorf("read existing artifact: %w", err)
		}
		s.persistedType = existing.CrimeType
	}
	if s.persistedType != "" && s.persistedType != model.crimeType {
		return false, nil
	}

	if err := s.store.Save(model.artifact()); err != nil {
		return false, err
	}
	s.persistedType = model.crimeType

	s.mu.Lock()
	s.artifactLoaded = true
	s.mu.Unlock()
	return true, nil
}

// fit prepares features from every row with a value for crimeType and fits on
// an 80/20 split, scoring the held-out part
func (s *PredictionService) fit(crimeType string) (*trainedModel, error) {
	if s.dataset.Len() == 0 {
		return nil, errors.New("no dataset to train on")
	}
	if err := s.dataset.CheckColumn(crimeType); err != nil {
		return nil, err
	}

	var states, districts []string
	var years, targets []float64
	for _, r := range s.dataset.Records() {
		v, ok := r.Value(crimeType)
		if !ok {
			continue
		}
		states = append(states, r.State)
		districts = append(districts, r.District)
		years = append(years, float64(r.Year))
		targets = append(targets, v)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no %s values to train on", crimeType)
	}

	model := &trainedModel{
		crimeType: crimeType,
		states:    FitLabelEncoder(states),
		districts: FitLabelEncoder(districts),
		regressor: &LinearRegressor{},
		samples:   len(targets),
		trainedAt: time.Now().UTC(),
	}

	features := make([][]float64, len(targets))
	for i := range targets {
		sc, _ := model.states.Transform(states[i])
		dc, _ := model.districts.Transform(districts[i])
		features[i] = []float64{float64(sc), float64(dc), years[i]}
	}

	trainIdx, testIdx := trainTestSplit(len(targets), testFraction, splitSeed)
	xTrain, yTrain := pick(features, targets, trainIdx)
	if err := model.regressor.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("train %s: %w", crimeType, err)
	}

	xTest, yTest := pick(features, targets, testIdx)
	estimates := make([]float64, len(yTest))
	for i, x := range xTest {
		estimates[i], _ = model.regressor.Predict(x)
	}
	model.mae = meanAbsoluteError(estimates, yTest)
	if r2 := stat.RSquaredFrom(estimates, yTest, nil); !math.IsNaN(r2) {
		model.r2 = r2
	}
	return model, nil
}

func pick(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, k := range idx {
		xs[i] = x[k]
		ys[i] = y[k]
	}
	return xs, ys
}

// loadArtifact restores the persisted model once per process
func (s *PredictionService) loadArtifact() error {
	s.mu.RLock()
	loaded := s.artifactLoaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	artifact, err := s.store.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[artifact.CrimeType]; !ok {
		s.models[artifact.CrimeType] = modelFromArtifact(artifact)
	}
	s.artifactLoaded = true
	return nil
}

// modelFor returns the cached model for crimeType, training it on first use
func (s *PredictionService) modelFor(crimeType string) (*trainedModel, error) {
	s.mu.RLock()
	model, ok := s.models[crimeType]
	s.mu.RUnlock()
	if ok {
		return model, nil
	}

	// a caller that missed the cache while another training finished finds
	// the model here instead of training again
	_, err, _ := s.training.Do(crimeType, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.models[crimeType]
		s.mu.RUnlock()
		if ok {
			return cached.report(), nil
		}
		return s.train(crimeType)
	})
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	model, ok = s.models[crimeType]
	if !ok {
		return nil, fmt.Errorf("model for %s missing after training", crimeType)
	}
	return model, nil
}

// Predict forecasts crimeType for a district and year. It never fails: a
// missing artifact, a training error or an unseen state/district gives the
// fallback estimate.
func (s *PredictionService) Predict(state, district, crimeType string, year int) (result *models.PredictionResult) {
	result = &models.PredictionResult{
		State:     state,
		District:  district,
		CrimeType: crimeType,
		Year:      year,
	}
	fallback := func(reason string, err error) *models.PredictionResult {
		s.logger.Warn("Prediction fallback for %s/%s/%s/%d (%s): %v", state, district, crimeType, year, reason, err)
		s.metrics.RecordFallback("prediction", reason)
		result.PredictedCrimes = models.FallbackPrediction
		result.Confidence = models.ConfidenceMedium
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			result = fallback("panic", fmt.Errorf("%v", r))
		}
	}()

	if err := s.loadArtifact(); err != nil {
		return fallback("artifact", err)
	}
	model, err := s.modelFor(crimeType)
	if err != nil {
		return fallback("training", err)
	}
	raw, err := model.predict(state, district, year)
	if err != nil {
		if errors.Is(err, models.ErrUnknownCategory) {
			return fallback("unknown_category", err)
		}
		return fallback("predict", err)
	}

	result.PredictedCrimes = math.Round(math.Max(0, raw)*100) / 100
	result.Confidence = models.ConfidenceLow
	if raw > 0 {
		result.Confidence = models.ConfidenceHigh
	}
	return result
}

// Retrain refits every cached crime type, replacing models in place. The
// persisted crime type is rewritten with its refreshed model.
func (s *PredictionService) Retrain() {
	s.mu.RLock()
	crimeTypes := make([]string, 0, len(s.models))
	for ct := range s.models {
		crimeTypes = append(crimeTypes, ct)
	}
	s.mu.RUnlock()

	for _, ct := range crimeTypes {
		if _, err := s.Train(ct); err != nil {
			s.logger.Error("Scheduled retrain of %s failed: %v", ct, err)
		}
	}
}
