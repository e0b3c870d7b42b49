package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/internal/domain/service"
	svcmetrics "LPQuant/internal/service/metrics"
	"LPQuant/internal/services/backtest"
	"LPQuant/internal/services/candidates"
	"LPQuant/internal/services/scoring"
	"LPQuant/internal/services/strategy"
	"LPQuant/internal/services/tickmath"
	"LPQuant/internal/services/volatility"
	applogger "LPQuant/pkg/logger"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrGeneration   = errors.New("candidate generation failed")
)

const (
	topN = 3

	minKlines = 2
)

// RecommendConfig carries deployment defaults for requests that omit them.
type RecommendConfig struct {
	AnnualizeFactor    float64
	DefaultProfile     string
	DefaultHorizonDays float64
	DefaultCapitalUSD  float64
	MaxKlines          int
}

// volatilityReporter is implemented by strategies that size ranges from a
// volatility forecast.
type volatilityReporter interface {
	Volatility(history models.PriceSeries, params models.StrategyParams) models.VolatilityEstimate
}

// RecommendUseCase validates a request, runs a range strategy over the price
// history, back-tests every candidate and assembles the response.
type RecommendUseCase struct {
	strategies *strategy.Registry
	bars       *BarsUseCase
	metrics    *svcmetrics.Engine
	cfg        RecommendConfig
	l          *applogger.Logger
}

func NewRecommendUseCase(
	strategies *strategy.Registry,
	bars *BarsUseCase,
	metrics *svcmetrics.Engine,
	cfg RecommendConfig,
	l *applogger.Logger,
) *RecommendUseCase {
	if cfg.AnnualizeFactor <= 0 {
		cfg.AnnualizeFactor = volatility.DefaultAnnualizeFactor
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = scoring.ProfileBalanced
	}
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = strategy.DefaultHorizonDays
	}
	if cfg.DefaultCapitalUSD <= 0 {
		cfg.DefaultCapitalUSD = 10000
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &RecommendUseCase{
		strategies: strategies,
		bars:       bars,
		metrics:    metrics,
		cfg:        cfg,
		l:          l.With(applogger.String("component", "recommend")),
	}
}

// RecommendPattern ranks pattern candidates under the request's risk profile
// and always reports the two extreme bands alongside the top three.
func (uc *RecommendUseCase) RecommendPattern(ctx context.Context, req models.RecommendRequest) (*models.RecommendResponse, error) {
	start := time.Now()
	series, err := uc.validate(req.Klines, req.CurrentPrice, req.TickSpacing)
	if err != nil {
		return nil, uc.fail(strategy.NamePattern, "invalid_input", err)
	}

	params := models.StrategyParams{
		CurrentPrice:    req.CurrentPrice,
		TickSpacing:     req.TickSpacing,
		FeeRate:         req.FeeRate,
		CapitalUSD:      uc.capital(req.CapitalUSD),
		Profile:         uc.profile(req.Profile),
		Strategies:      req.Strategies,
		AnnualizeFactor: uc.cfg.AnnualizeFactor,
	}
	resp, err := uc.runPattern(ctx, series, params)
	if err != nil {
		return nil, uc.fail(strategy.NamePattern, reason(err), err)
	}
	uc.metrics.ObserveRecommend(strategy.NamePattern, time.Since(start))
	return resp, nil
}

// RecommendSigma sizes ranges from the blended volatility forecast over the
// request horizon.
func (uc *RecommendUseCase) RecommendSigma(ctx context.Context, req models.SigmaRecommendRequest) (*models.SigmaRecommendResponse, error) {
	start := time.Now()
	series, err := uc.validate(req.Klines, req.CurrentPrice, req.TickSpacing)
	if err != nil {
		return nil, uc.fail(strategy.NameSigma, "invalid_input", err)
	}

	params := models.StrategyParams{
		CurrentPrice:    req.CurrentPrice,
		TickSpacing:     req.TickSpacing,
		FeeRate:         req.FeeRate,
		CapitalUSD:      uc.capital(req.CapitalUSD),
		HorizonDays:     uc.horizon(req.HorizonDays),
		AnnualizeFactor: uc.cfg.AnnualizeFactor,
	}
	resp, err := uc.runSigma(ctx, series, params)
	if err != nil {
		return nil, uc.fail(strategy.NameSigma, reason(err), err)
	}
	uc.metrics.ObserveRecommend(strategy.NameSigma, time.Since(start))
	return resp, nil
}

// PoolRecommendResult holds whichever response the chosen strategy built.
type PoolRecommendResult struct {
	Strategy string
	Pattern  *models.RecommendResponse
	Sigma    *models.SigmaRecommendResponse
}

// Response returns the populated response body.
func (r *PoolRecommendResult) Response() interface{} {
	if r.Sigma != nil {
		return r.Sigma
	}
	return r.Pattern
}

// RecommendPool runs a strategy over the bars indexed for a configured pool.
// The last close is the current price and the pool config supplies tick
// spacing and fee rate.
func (uc *RecommendUseCase) RecommendPool(ctx context.Context, req models.PoolRecommendRequest) (*PoolRecommendResult, error) {
	start := time.Now()
	name := req.Strategy
	if name == "" {
		name = uc.strategies.Default()
	}
	if uc.bars == nil {
		return nil, uc.fail(name, "no_store", fmt.Errorf("%w: no bar store configured", ErrGeneration))
	}

	res, err := uc.bars.GetBars(ctx, GetBarsParams{
		PoolID:   req.PoolID,
		Interval: req.Interval,
		Limit:    req.Limit,
	})
	if err != nil {
		return nil, uc.fail(name, reason(err), err)
	}
	if len(res.Bars) < minKlines {
		err := fmt.Errorf("%w: pool has %d %s bars, need at least %d", ErrInvalidInput, len(res.Bars), res.Interval, minKlines)
		return nil, uc.fail(name, "invalid_input", err)
	}

	series := models.SeriesFromBars(res.Bars)
	last, _ := series.Last()
	params := models.StrategyParams{
		CurrentPrice:    last.Close,
		TickSpacing:     res.Pool.TickSpacing,
		FeeRate:         res.Pool.FeeRate,
		CapitalUSD:      uc.capital(req.CapitalUSD),
		Profile:         uc.profile(req.Profile),
		HorizonDays:     uc.horizon(req.HorizonDays),
		Strategies:      req.Strategies,
		AnnualizeFactor: volatility.AnnualizeFactorFor(string(res.Interval)),
	}
	if params.CurrentPrice <= 0 || params.TickSpacing <= 0 {
		err := fmt.Errorf("%w: pool %s has no usable price or tick spacing", ErrInvalidInput, res.PoolID)
		return nil, uc.fail(name, "invalid_input", err)
	}

	out := &PoolRecommendResult{Strategy: name}
	switch name {
	case strategy.NameSigma:
		out.Sigma, err = uc.runSigma(ctx, series, params)
	case strategy.NamePattern:
		out.Pattern, err = uc.runPattern(ctx, series, params)
	default:
		err = fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, name)
	}
	if err != nil {
		return nil, uc.fail(name, reason(err), err)
	}
	uc.metrics.ObserveRecommend(name, time.Since(start))
	return out, nil
}

func (uc *RecommendUseCase) runPattern(ctx context.Context, series models.PriceSeries, params models.StrategyParams) (*models.RecommendResponse, error) {
	strat, err := uc.strategies.Get(strategy.NamePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	raw, err := strat.Generate(series, params)
	if err != nil {
		return nil, fmt.Errorf("%w: generate: %v", ErrGeneration, err)
	}
	stratAligned := uc.align(raw, params)
	extAligned := uc.align(candidates.Extreme(params.CurrentPrice), params)
	uc.metrics.CandidatesGenerated(string(models.RangePattern), len(stratAligned))
	uc.metrics.CandidatesGenerated(string(models.RangeExtreme), len(extAligned))
	if len(stratAligned)+len(extAligned) == 0 {
		return nil, fmt.Errorf("%w: no valid candidate ranges", ErrGeneration)
	}

	all := make([]models.AlignedCandidate, 0, len(stratAligned)+len(extAligned))
	all = append(all, stratAligned...)
	all = append(all, extAligned...)
	evaluated, err := uc.backtestAll(ctx, strat.Name(), all, series, params)
	if err != nil {
		return nil, err
	}

	scored, err := scoreGroup(strat, evaluated[:len(stratAligned)], params)
	if err != nil {
		return nil, err
	}
	extremes, err := scoreGroup(strat, evaluated[len(stratAligned):], params)
	if err != nil {
		return nil, err
	}

	ext2, ok2 := findLabel(extremes, candidates.ExtremeLabel(2))
	ext5, ok5 := findLabel(extremes, candidates.ExtremeLabel(5))
	if !ok2 || !ok5 {
		return nil, fmt.Errorf("%w: failed to generate extreme range candidates", ErrGeneration)
	}

	if len(scored) < topN {
		for _, e := range extremes {
			if len(scored) >= topN {
				break
			}
			scored = append(scored, e)
		}
		scoring.SortByScore(scored)
	}
	top := scored
	if len(top) > topN {
		top = top[:topN]
	}

	resp := &models.RecommendResponse{
		Top3:         make([]models.CandidateResult, 0, len(top)),
		Extreme2Pct:  ext2.Result(),
		Extreme5Pct:  ext5.Result(),
		Series:       make(map[string]models.ChartSeries, len(top)+2),
		CurrentPrice: params.CurrentPrice,
		PoolFeeRate:  params.FeeRate,
	}
	for i, c := range top {
		resp.Top3 = append(resp.Top3, c.Result())
		resp.Series[fmt.Sprintf("top%d", i+1)] = c.Series
	}
	resp.Series["extreme_2pct"] = ext2.Series
	resp.Series["extreme_5pct"] = ext5.Series
	return resp, nil
}

func (uc *RecommendUseCase) runSigma(ctx context.Context, series models.PriceSeries, params models.StrategyParams) (*models.SigmaRecommendResponse, error) {
	strat, err := uc.strategies.Get(strategy.NameSigma)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	var vol models.VolatilityEstimate
	if vr, ok := strat.(volatilityReporter); ok {
		vol = vr.Volatility(series, params)
		params.Volatility = &vol
	}

	raw, err := strat.Generate(series, params)
	if err != nil {
		return nil, fmt.Errorf("%w: generate: %v", ErrGeneration, err)
	}
	aligned := uc.align(raw, params)
	for _, rt := range []models.RangeType{models.RangeBalanced, models.RangeNarrow} {
		uc.metrics.CandidatesGenerated(string(rt), countType(aligned, rt))
	}
	if len(aligned) == 0 {
		return nil, fmt.Errorf("%w: no valid candidate ranges", ErrGeneration)
	}

	evaluated, err := uc.backtestAll(ctx, strat.Name(), aligned, series, params)
	if err != nil {
		return nil, err
	}
	scored, err := scoreGroup(strat, evaluated, params)
	if err != nil {
		return nil, err
	}

	sel := scoring.SelectFixed(scored)
	if sel.Balanced == nil || sel.Narrow == nil || sel.Backtest == nil {
		return nil, fmt.Errorf("%w: missing balanced or narrow candidate", ErrGeneration)
	}
	best := sel.Backtest.Result()
	best.RangeType = models.RangeBacktest
	if best.InsightData != nil {
		data := *best.InsightData
		data.RangeType = string(models.RangeBacktest)
		best.InsightData = &data
	}

	return &models.SigmaRecommendResponse{
		Balanced:     sel.Balanced.Result(),
		Narrow:       sel.Narrow.Result(),
		BestBacktest: best,
		Volatility: models.VolatilityInfo{
			VolatilityEstimate: vol,
			SigmaT:             candidates.SigmaT(vol.SigmaAnnual, params.HorizonDays),
		},
		HorizonDays: params.HorizonDays,
		Series: map[string]models.ChartSeries{
			"balanced":      sel.Balanced.Series,
			"narrow":        sel.Narrow.Series,
			"best_backtest": sel.Backtest.Series,
		},
		CurrentPrice: params.CurrentPrice,
		PoolFeeRate:  params.FeeRate,
	}, nil
}

func (uc *RecommendUseCase) validate(klines []models.Kline, currentPrice float64, tickSpacing int) (models.PriceSeries, error) {
	if len(klines) < minKlines {
		return nil, fmt.Errorf("%w: at least %d klines are required", ErrInvalidInput, minKlines)
	}
	if uc.cfg.MaxKlines > 0 && len(klines) > uc.cfg.MaxKlines {
		return nil, fmt.Errorf("%w: at most %d klines are accepted", ErrInvalidInput, uc.cfg.MaxKlines)
	}
	series, err := models.ParseKlines(klines)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid kline format: %v", ErrInvalidInput, err)
	}
	if currentPrice <= 0 {
		return nil, fmt.Errorf("%w: current_price must be positive", ErrInvalidInput)
	}
	if tickSpacing <= 0 {
		return nil, fmt.Errorf("%w: tick_spacing must be positive", ErrInvalidInput)
	}
	return series, nil
}

// align drops candidates that are invalid before or after snapping to the
// tick lattice, keeping the input order.
func (uc *RecommendUseCase) align(raw []models.RangeCandidate, params models.StrategyParams) []models.AlignedCandidate {
	valid := candidates.Filter(raw)
	out := make([]models.AlignedCandidate, 0, len(valid))
	for _, c := range valid {
		a, err := tickmath.Align(c, params.TickSpacing, params.CurrentPrice)
		if err != nil {
			uc.l.Debug("candidate dropped at alignment",
				applogger.String("label", c.Label),
				applogger.Error(err),
			)
			continue
		}
		out = append(out, a)
	}
	return out
}

// backtestAll simulates every candidate concurrently. Each goroutine writes
// only its own slot, so the output keeps the input order.
func (uc *RecommendUseCase) backtestAll(
	ctx context.Context,
	strategyName string,
	cands []models.AlignedCandidate,
	series models.PriceSeries,
	params models.StrategyParams,
) ([]models.EvaluatedCandidate, error) {
	out := make([]models.EvaluatedCandidate, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range cands {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := backtest.Evaluate(cands[i], series, params.CurrentPrice, params.CapitalUSD)
			if err != nil {
				return fmt.Errorf("%w: backtest %s: %v", ErrGeneration, cands[i].Label, err)
			}
			out[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	uc.metrics.BacktestsRun(strategyName, len(cands))
	return out, nil
}

func scoreGroup(strat service.RangeStrategy, cands []models.EvaluatedCandidate, params models.StrategyParams) ([]models.ScoredCandidate, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	scored, err := strat.Score(cands, params)
	if errors.Is(err, scoring.ErrUnknownProfile) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: score: %v", ErrGeneration, err)
	}
	return scored, nil
}

func findLabel(cands []models.ScoredCandidate, label string) (models.ScoredCandidate, bool) {
	for _, c := range cands {
		if c.Label == label {
			return c, true
		}
	}
	return models.ScoredCandidate{}, false
}

func countType(cands []models.AlignedCandidate, rt models.RangeType) int {
	n := 0
	for _, c := range cands {
		if c.RangeType == rt {
			n++
		}
	}
	return n
}

func (uc *RecommendUseCase) capital(v float64) float64 {
	if v > 0 {
		return v
	}
	return uc.cfg.DefaultCapitalUSD
}

func (uc *RecommendUseCase) profile(p string) string {
	if p != "" {
		return p
	}
	return uc.cfg.DefaultProfile
}

func (uc *RecommendUseCase) horizon(d float64) float64 {
	if d > 0 {
		return d
	}
	return uc.cfg.DefaultHorizonDays
}

func (uc *RecommendUseCase) fail(strategyName, why string, err error) error {
	uc.metrics.RecommendError(strategyName, why)
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, domrepo.ErrPoolNotFound) || errors.Is(err, context.Canceled) {
		uc.l.Debug("recommend rejected", applogger.String("strategy", strategyName), applogger.Error(err))
	} else {
		uc.l.Error("recommend failed", applogger.String("strategy", strategyName), applogger.Error(err))
	}
	return err
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrGeneration):
		return "generation"
	case errors.Is(err, domrepo.ErrPoolNotFound):
		return "pool_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
