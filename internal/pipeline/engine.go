// Package pipeline orchestrates the multi-stage manufacturer
// resolution: cached prior results, heuristic web search, the curated
// search API, and LLM document analysis, escalating in cost order.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Itecs-company/Alias/internal/docs"
	"github.com/Itecs-company/Alias/internal/extract"
	"github.com/Itecs-company/Alias/internal/fuzz"
	"github.com/Itecs-company/Alias/internal/model"
	"github.com/Itecs-company/Alias/internal/normalize"
	"github.com/Itecs-company/Alias/internal/search"
	"github.com/Itecs-company/Alias/internal/store"
)

// Notifier delivers out-of-band operator notifications. Failures are
// the notifier's problem; the pipeline never checks them.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// EngineConfig wires an Engine. Store is required; nil providers mark
// their stage skipped, other nil fields get defaults.
type EngineConfig struct {
	Store    store.Store
	Policy   Policy
	Matcher  *Matcher
	Dict     *normalize.Dictionary
	Fetcher  *docs.Fetcher
	Web      search.Provider // stage 1
	CSE      search.Provider // stage 2
	LLM      search.Provider // stage 3 URL suggestions
	Analyzer *extract.Analyzer
	Notifier Notifier
}

// Engine runs the resolution pipeline. Construct once at startup; it
// is safe for concurrent use.
type Engine struct {
	store    store.Store
	policy   Policy
	matcher  *Matcher
	dict     *normalize.Dictionary
	resolver *Resolver
	fetcher  *docs.Fetcher
	web      search.Provider
	cse      search.Provider
	llm      search.Provider
	analyzer *extract.Analyzer
	notifier Notifier
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Dict == nil {
		cfg.Dict = normalize.Default()
	}
	if cfg.Matcher == nil {
		cfg.Matcher = NewMatcher(nil, cfg.Dict)
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = docs.NewFetcher()
	}
	return &Engine{
		store:    cfg.Store,
		policy:   cfg.Policy,
		matcher:  cfg.Matcher,
		dict:     cfg.Dict,
		resolver: NewResolver(cfg.Store),
		fetcher:  cfg.Fetcher,
		web:      cfg.Web,
		cse:      cfg.CSE,
		llm:      cfg.LLM,
		analyzer: cfg.Analyzer,
		notifier: cfg.Notifier,
	}
}

// stageRun pairs a stage's audit entry with the candidate it produced.
type stageRun struct {
	status    model.StageStatus
	candidate *model.Candidate
}

// ResolveOne runs the full pipeline for a single part request and
// persists the outcome. Provider and network failures degrade to
// empty stages; only persistence failures propagate.
func (e *Engine) ResolveOne(ctx context.Context, req model.PartRequest, debug bool) (*model.ResolutionResult, error) {
	partNumber := strings.TrimSpace(req.PartNumber)
	if partNumber == "" {
		return nil, eris.New("pipeline: empty part number")
	}
	hint := strings.TrimSpace(req.ManufacturerHint)

	if res, ok, err := e.fromCache(ctx, partNumber, hint, debug); err != nil {
		return nil, err
	} else if ok {
		return res, nil
	}

	var runs []stageRun

	internet := e.runSearchStage(ctx, model.StageInternet, e.web, e.policy.InternetThreshold, partNumber, hint)
	runs = append(runs, internet)

	if internet.status.Status == model.StageSuccess {
		runs = append(runs, skippedRun(model.StageGoogle, "previous stage succeeded"))
	} else {
		google := e.runSearchStage(ctx, model.StageGoogle, e.cse, e.policy.GoogleThreshold, partNumber, hint)
		runs = append(runs, google)
	}

	runs = append(runs, e.maybeRunLLM(ctx, runs, partNumber, hint))

	winner, runs := e.selectWinner(runs)
	return e.persist(ctx, partNumber, hint, winner, runs, debug)
}

// ResolveMany resolves a batch concurrently under the policy's
// semaphore. Output order matches input order; a per-item failure
// fails the batch only when it is a persistence failure, which is the
// only kind ResolveOne returns.
func (e *Engine) ResolveMany(ctx context.Context, reqs []model.PartRequest, debug bool) ([]model.ResolutionResult, error) {
	results := make([]model.ResolutionResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.policy.Concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := e.ResolveOne(gctx, req, debug)
			if err != nil {
				e.notify(gctx, fmt.Sprintf("resolution failed for %s: %v", req.PartNumber, err))
				return eris.Wrapf(err, "pipeline: resolve %s", req.PartNumber)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.notify(ctx, fmt.Sprintf("batch resolution finished: %d parts", len(reqs)))
	return results, nil
}

// fromCache short-circuits on a prior resolution of the same part
// number, provided any submitted hint agrees with the stored
// manufacturer. This is the primary cost-control mechanism.
func (e *Engine) fromCache(ctx context.Context, partNumber, hint string, debug bool) (*model.ResolutionResult, bool, error) {
	prior, err := e.store.LatestPartByNumber(ctx, partNumber)
	if err != nil {
		return nil, false, eris.Wrap(err, "pipeline: cache lookup")
	}
	if prior == nil || prior.ManufacturerName == nil {
		return nil, false, nil
	}
	if hint != "" && fuzz.WRatio(hint, *prior.ManufacturerName) < e.policy.CacheHintSimilarity {
		zap.L().Debug("cached resolution rejected by hint",
			zap.String("part_number", partNumber),
			zap.String("hint", hint),
			zap.String("cached", *prior.ManufacturerName))
		return nil, false, nil
	}

	stage := model.StageCache
	history := []model.StageStatus{
		{Name: model.StageInternet, Status: model.StageSkipped, Message: "prior resolution reused"},
		{Name: model.StageGoogle, Status: model.StageSkipped, Message: "prior resolution reused"},
		{Name: model.StageOpenAI, Status: model.StageSkipped, Message: "prior resolution reused"},
	}

	matchStatus, matchConf := EvaluateMatch(hint, prior.ManufacturerName)

	res := &model.ResolutionResult{
		PartNumber:            partNumber,
		ManufacturerName:      prior.ManufacturerName,
		AliasUsed:             prior.AliasUsed,
		SubmittedManufacturer: optional(hint),
		MatchStatus:           matchStatus,
		MatchConfidence:       matchConf,
		Confidence:            prior.Confidence,
		SourceURL:             prior.SourceURL,
		SearchStage:           &stage,
		StageHistory:          history,
	}
	if debug {
		res.DebugLog = prior.DebugLog
	}
	zap.L().Info("resolved from cache",
		zap.String("part_number", partNumber),
		zap.String("manufacturer", *prior.ManufacturerName))
	return res, true, nil
}

// runSearchStage issues query variants against one provider, extracts
// text from the result URLs and keeps the best heuristic match.
func (e *Engine) runSearchStage(ctx context.Context, name string, provider search.Provider, threshold float64, partNumber, hint string) stageRun {
	if provider == nil {
		return skippedRun(name, "no provider configured")
	}

	urls := e.collectURLs(ctx, provider, partNumber, hint)
	if len(urls) == 0 {
		return stageRun{status: model.StageStatus{
			Name:     name,
			Status:   model.StageNoResults,
			Provider: provider.Name(),
			Message:  "provider returned no usable results",
		}}
	}

	texts := docs.ExtractFromURLs(ctx, e.fetcher, urls)

	var best *model.Candidate
	for _, u := range urls {
		text, ok := texts[u]
		if !ok {
			continue
		}
		m, ok := e.matcher.Match(text, partNumber, hint, u)
		if !ok {
			continue
		}
		if best == nil || m.Confidence > best.Confidence {
			best = &model.Candidate{
				Manufacturer: m.Manufacturer,
				AliasUsed:    m.AliasUsed,
				Confidence:   m.Confidence,
				SourceURL:    u,
				DebugLog:     m.DebugLog,
				Stage:        name,
			}
		}
	}

	if best == nil {
		return stageRun{status: model.StageStatus{
			Name:           name,
			Status:         model.StageNoResults,
			Provider:       provider.Name(),
			URLsConsidered: len(urls),
			Message:        "no manufacturer guess from any result",
		}}
	}

	status := model.StageLowConfidence
	message := fmt.Sprintf("best candidate %q below threshold %.2f", best.Manufacturer, threshold)
	if best.Confidence >= threshold {
		status = model.StageSuccess
		message = fmt.Sprintf("candidate %q met threshold %.2f", best.Manufacturer, threshold)
	}
	conf := best.Confidence
	return stageRun{
		status: model.StageStatus{
			Name:           name,
			Status:         status,
			Provider:       provider.Name(),
			Confidence:     &conf,
			URLsConsidered: len(urls),
			Message:        message,
		},
		candidate: best,
	}
}

// maybeRunLLM decides whether the paid stage runs: always when nothing
// succeeded, and also when the best confidence so far sits under the
// escalation bound.
func (e *Engine) maybeRunLLM(ctx context.Context, prior []stageRun, partNumber, hint string) stageRun {
	succeeded := false
	bestConf := 0.0
	for _, r := range prior {
		if r.status.Status == model.StageSuccess {
			succeeded = true
		}
		if r.candidate != nil && r.candidate.Confidence > bestConf {
			bestConf = r.candidate.Confidence
		}
	}
	if succeeded && bestConf >= e.policy.LLMEscalationBelow {
		return skippedRun(model.StageOpenAI, "previous stage succeeded with high confidence")
	}
	if e.llm == nil || e.analyzer == nil {
		return skippedRun(model.StageOpenAI, "no provider configured")
	}
	return e.runLLMStage(ctx, partNumber, hint)
}

// runLLMStage asks the LLM provider for candidate document URLs, then
// downloads the most promising ones and extracts a structured answer.
func (e *Engine) runLLMStage(ctx context.Context, partNumber, hint string) stageRun {
	urls := e.collectURLs(ctx, e.llm, partNumber, hint)
	if len(urls) == 0 {
		return stageRun{status: model.StageStatus{
			Name:     model.StageOpenAI,
			Status:   model.StageNoResults,
			Provider: e.llm.Name(),
			Message:  "no candidate documents suggested",
		}}
	}

	ex, sourceURL, err := e.analyzer.AnalyzeURLs(ctx, urls, partNumber, hint)
	if err != nil || ex.Manufacturer == "" {
		msg := "document analysis produced no manufacturer"
		if err != nil {
			msg = fmt.Sprintf("document analysis failed: %v", err)
		}
		return stageRun{status: model.StageStatus{
			Name:           model.StageOpenAI,
			Status:         model.StageNoResults,
			Provider:       e.llm.Name(),
			URLsConsidered: len(urls),
			Message:        msg,
		}}
	}

	cand := &model.Candidate{
		Manufacturer: ex.Manufacturer,
		AliasUsed:    e.matcher.aliasFor(hint, ex.Manufacturer),
		Confidence:   ex.Confidence,
		SourceURL:    sourceURL,
		DebugLog:     fmt.Sprintf("LLM document analysis of %s", sourceURL),
		Stage:        model.StageOpenAI,
	}

	status := model.StageLowConfidence
	message := fmt.Sprintf("extracted %q below threshold %.2f", ex.Manufacturer, e.policy.GoogleThreshold)
	if ex.Confidence >= e.policy.GoogleThreshold {
		status = model.StageSuccess
		message = fmt.Sprintf("extracted %q from document analysis", ex.Manufacturer)
	}
	conf := ex.Confidence
	return stageRun{
		status: model.StageStatus{
			Name:           model.StageOpenAI,
			Status:         status,
			Provider:       e.llm.Name(),
			Confidence:     &conf,
			URLsConsidered: len(urls),
			Message:        message,
		},
		candidate: cand,
	}
}

// collectURLs runs every query variant against the provider and
// returns the deduplicated result links in rank order.
func (e *Engine) collectURLs(ctx context.Context, provider search.Provider, partNumber, hint string) []string {
	var urls []string
	seen := map[string]struct{}{}
	for _, q := range queryVariants(e.dict, partNumber, hint) {
		outcome := provider.Search(ctx, q, e.policy.MaxResults)
		if !outcome.OK() {
			if outcome.Err != nil {
				zap.L().Debug("provider search failed",
					zap.String("provider", provider.Name()),
					zap.String("query", q),
					zap.Error(outcome.Err))
			}
			continue
		}
		for _, r := range outcome.Results {
			if r.Link == "" {
				continue
			}
			if _, dup := seen[r.Link]; dup {
				continue
			}
			seen[r.Link] = struct{}{}
			urls = append(urls, r.Link)
		}
	}
	if len(urls) > 2*e.policy.MaxResults {
		urls = urls[:2*e.policy.MaxResults]
	}
	return urls
}

// queryVariants builds the search queries for one part: the bare part
// number, the part with the hint, and the part with the hint's
// canonical form when the hint is not Latin script.
func queryVariants(dict *normalize.Dictionary, partNumber, hint string) []string {
	variants := []string{partNumber}
	if hint == "" {
		return variants
	}
	variants = append(variants, partNumber+" "+hint)
	if !normalize.IsLatin(hint) {
		if norm := dict.Normalize(hint); norm != hint {
			variants = append(variants, partNumber+" "+norm)
		}
	}
	return variants
}

// selectWinner picks the final candidate and finalizes the stage
// history. Success candidates win in stage order; the LLM candidate
// replaces an earlier success only when the policy allows it. With no
// success anywhere, the highest-confidence candidate is accepted as
// best effort and its stage message annotated retroactively.
func (e *Engine) selectWinner(runs []stageRun) (*model.Candidate, []stageRun) {
	var winner *model.Candidate
	for _, r := range runs {
		if r.status.Status != model.StageSuccess || r.candidate == nil {
			continue
		}
		if winner == nil {
			winner = r.candidate
			continue
		}
		// a later success can only be the LLM stage
		if r.status.Name == model.StageOpenAI && e.policy.LLMOverrideSuccess && r.candidate.Confidence > winner.Confidence {
			winner = r.candidate
		}
	}
	if winner != nil {
		return winner, runs
	}

	// fallback: best low-confidence candidate across all stages
	winnerIdx := -1
	for i, r := range runs {
		if r.candidate == nil {
			continue
		}
		if winner == nil || r.candidate.Confidence > winner.Confidence {
			winner = r.candidate
			winnerIdx = i
		}
	}
	if winner == nil {
		return nil, runs
	}

	finalized := make([]stageRun, len(runs))
	copy(finalized, runs)
	annotated := finalized[winnerIdx].status
	annotated.Message = annotated.Message + "; accepted as best-effort fallback"
	finalized[winnerIdx].status = annotated
	return winner, finalized
}

// persist canonicalizes the winner, upserts the manufacturer and
// aliases, saves the Part row and shapes the caller-facing result.
func (e *Engine) persist(ctx context.Context, partNumber, hint string, winner *model.Candidate, runs []stageRun, debug bool) (*model.ResolutionResult, error) {
	history := make([]model.StageStatus, len(runs))
	for i, r := range runs {
		history[i] = r.status
	}

	part := &model.Part{
		ID:                    uuid.NewString(),
		PartNumber:            partNumber,
		SubmittedManufacturer: optional(hint),
		StageHistory:          history,
		CreatedAt:             time.Now().UTC(),
	}

	res := &model.ResolutionResult{
		PartNumber:            partNumber,
		SubmittedManufacturer: part.SubmittedManufacturer,
		StageHistory:          history,
	}

	if winner == nil {
		matchStatus, _ := EvaluateMatch(hint, nil)
		part.MatchStatus = matchStatus
		part.DebugLog = optional("no stage produced a manufacturer candidate")
		res.MatchStatus = matchStatus
		if debug {
			res.DebugLog = part.DebugLog
		}
		if err := e.store.SavePart(ctx, part); err != nil {
			return nil, eris.Wrap(err, "pipeline: save unresolved part")
		}
		zap.L().Info("part unresolved", zap.String("part_number", partNumber))
		return res, nil
	}

	canonical := e.dict.Normalize(winner.Manufacturer)
	manufacturer, err := e.resolver.Resolve(ctx, canonical)
	if err != nil {
		return nil, err
	}

	aliases := make([]string, 0, 2)
	if winner.AliasUsed != "" {
		aliases = append(aliases, winner.AliasUsed)
	}
	if !strings.EqualFold(winner.Manufacturer, canonical) {
		aliases = append(aliases, winner.Manufacturer)
	}
	if err := e.resolver.SyncAliases(ctx, manufacturer, aliases); err != nil {
		return nil, err
	}

	matchStatus, matchConf := EvaluateMatch(hint, &manufacturer.Name)
	conf := winner.Confidence
	stage := winner.Stage

	part.ManufacturerID = &manufacturer.ID
	part.ManufacturerName = &manufacturer.Name
	part.AliasUsed = optional(winner.AliasUsed)
	part.MatchStatus = matchStatus
	part.MatchConfidence = matchConf
	part.Confidence = &conf
	part.SourceURL = optional(winner.SourceURL)
	part.DebugLog = optional(winner.DebugLog)
	part.SearchStage = &stage

	if err := e.store.SavePart(ctx, part); err != nil {
		return nil, eris.Wrap(err, "pipeline: save part")
	}

	res.ManufacturerName = &manufacturer.Name
	res.AliasUsed = part.AliasUsed
	res.MatchStatus = matchStatus
	res.MatchConfidence = matchConf
	res.Confidence = &conf
	res.SourceURL = part.SourceURL
	res.SearchStage = &stage
	if debug {
		res.DebugLog = part.DebugLog
	}

	zap.L().Info("part resolved",
		zap.String("part_number", partNumber),
		zap.String("manufacturer", manufacturer.Name),
		zap.Float64("confidence", conf),
		zap.String("stage", stage))
	return res, nil
}

func (e *Engine) notify(ctx context.Context, text string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, text)
}

func skippedRun(name, message string) stageRun {
	return stageRun{status: model.StageStatus{
		Name:    name,
		Status:  model.StageSkipped,
		Message: message,
	}}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
