package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"PairTrader/internal/broker"
	"PairTrader/internal/calculator"
	"PairTrader/internal/exchange"
	"PairTrader/internal/fund"
	"PairTrader/internal/metrics"
	"PairTrader/internal/model"
	"PairTrader/internal/notifier"
	"PairTrader/internal/position"
	"PairTrader/internal/recorder"
	"PairTrader/internal/strategy"

	"github.com/robfig/cron/v3"
)

// MarketSource produces one market observation per call.
type MarketSource interface {
	Collect(ctx context.Context) (*model.MarketView, error)
}

// Executor places the order a decision calls for.
type Executor interface {
	Execute(ctx context.Context, d model.Decision) (*model.Fill, error)
	ResetLotCache()
}

// Notifier delivers operator messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// ReportSource answers the daily report queries.
type ReportSource interface {
	CountCyclesSince(t time.Time) (map[string]int, error)
	RecentTrades(limit int) ([]model.Fill, error)
}

// Deps are the collaborators of a Scheduler. Recorder, Notifier, Metrics
// and Reports are optional.
type Deps struct {
	Symbol   string
	Exchange string
	Paper    bool

	Market   MarketSource
	Strategy *strategy.Strategy
	Broker   Executor
	Store    position.Store
	Recorder recorder.Recorder
	Notifier Notifier
	Metrics  *metrics.Metrics
	Reports  ReportSource

	Interval    time.Duration
	RetryPolicy position.RetryPolicy
}

// Scheduler runs the poll loop and the cron housekeeping around it.
type Scheduler struct {
	Deps
	Cron *cron.Cron

	now func() time.Time

	mu         sync.Mutex
	status     model.Status
	outcomes   map[string]int
	lastReport time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(d Deps) *Scheduler {
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.Interval <= 0 {
		d.Interval = time.Second
	}
	now := time.Now()
	return &Scheduler{
		Deps: d,
		Cron: cron.New(cron.WithSeconds()),
		now:  time.Now,
		status: model.Status{
			Symbol:    d.Symbol,
			Exchange:  d.Exchange,
			Paper:     d.Paper,
			StartedAt: now,
		},
		outcomes:   make(map[string]int),
		lastReport: now,
	}
}

// RegisterHousekeeping registers the lot-cache refresh, the daily report
// and the metrics push. Empty specs are skipped.
func (s *Scheduler) RegisterHousekeeping(ctx context.Context, lotCron, reportCron, pushCron string) error {
	if lotCron != "" {
		if _, err := s.Cron.AddFunc(lotCron, func() {
			s.Broker.ResetLotCache()
			log.Println("[DEBUG] lot constraint cache cleared")
		}); err != nil {
			return fmt.Errorf("register lot refresh: %w", err)
		}
	}
	if reportCron != "" {
		if _, err := s.Cron.AddFunc(reportCron, func() { s.trySend(ctx, s.Report(true)) }); err != nil {
			return fmt.Errorf("register daily report: %w", err)
		}
	}
	if pushCron != "" && s.Metrics != nil {
		if _, err := s.Cron.AddFunc(pushCron, func() {
			if err := s.Metrics.Push(ctx); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}); err != nil {
			return fmt.Errorf("register metrics push: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] housekeeping scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] housekeeping scheduler stopped")
}

// Run loads the persisted position and polls until ctx is cancelled. Each
// cycle runs to completion before the interval sleep starts. Only a failed
// initial load is returned as an error.
func (s *Scheduler) Run(ctx context.Context) error {
	pos, err := s.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load position from %s: %w", s.Store.Name(), err)
	}
	log.Printf("[INFO] trading %s every %v, position %s (%s)", s.Symbol, s.Interval, pos.Side, s.Store.Name())
	s.setPosition(pos.Side)

	for {
		pos, _ = s.RunCycle(ctx, pos)
		select {
		case <-ctx.Done():
			log.Printf("[INFO] poll loop stopped, position %s", pos.Side)
			return nil
		case <-time.After(s.Interval):
		}
	}
}

// RunCycle performs one fetch, decide, act and persist pass and returns the
// position to carry into the next cycle. Errors are logged and classified
// here; the returned error is informational.
func (s *Scheduler) RunCycle(ctx context.Context, pos model.PositionState) (model.PositionState, error) {
	start := s.now()
	evt := &recorder.CycleEvent{
		Time:     start,
		Symbol:   s.Symbol,
		Position: pos.Side,
		Action:   model.ActionHold,
	}

	next, fill, err := s.step(ctx, pos, evt)
	outcome := classify(err)
	evt.Outcome = outcome
	s.report(outcome, err)

	if fill != nil {
		if rerr := s.Recorder.RecordTrade(fill); rerr != nil {
			log.Printf("[ERROR] record trade: %v", rerr)
		}
		s.trySend(ctx, notifier.FormatFill(fill))
	}
	if rerr := s.Recorder.RecordCycle(evt); rerr != nil {
		log.Printf("[ERROR] record cycle: %v", rerr)
	}

	s.Metrics.ObserveCycle(outcome, s.now().Sub(start), start)
	s.Metrics.SetPosition(next.Side)
	s.updateStatus(evt, next.Side, fill != nil, err != nil)
	return next, err
}

func (s *Scheduler) step(ctx context.Context, pos model.PositionState, evt *recorder.CycleEvent) (model.PositionState, *model.Fill, error) {
	view, err := s.Market.Collect(ctx)
	if err != nil {
		return pos, nil, err
	}
	evt.Price, evt.Snapshot = view.Price, view.Snapshot
	s.Metrics.SetMarket(view.Price, view.Snapshot)

	in := strategy.Input{Snapshot: view.Snapshot, Price: view.Price}
	d := s.Strategy.Decide(in, pos)
	evt.Action, evt.Reason = d.Action, d.Reason
	s.logCycle(view, in, pos, d)

	if d.Action == model.ActionHold {
		return pos, nil, nil
	}

	side := model.SideBuy
	if d.Action == model.ActionSell {
		side = model.SideSell
	}
	fill, err := s.Broker.Execute(ctx, d)
	if err != nil {
		s.Metrics.ObserveOrder(side, classify(err))
		return pos, nil, fmt.Errorf("%s: %w", d.Action, err)
	}
	s.Metrics.ObserveOrder(side, "filled")
	log.Printf("[INFO] %s filled: %s %s at %s (order %s)", side, fill.Quantity, s.Symbol, fill.Price, fill.OrderID)

	next := model.PositionState{Side: model.Flat}
	if side == model.SideBuy {
		next = model.PositionState{Side: model.Long, Quantity: fill.Quantity}
	}
	attempts, err := position.SaveUntilDurable(ctx, s.Store, next, s.RetryPolicy)
	s.Metrics.AddPersistRetries(attempts - 1)
	if err != nil {
		log.Printf("[ERROR] %s filled but position %s was not persisted; fix with `pairtrader position set` before restarting", side, next.Side)
		return next, fill, err
	}
	return next, fill, nil
}

func (s *Scheduler) logCycle(view *model.MarketView, in strategy.Input, pos model.PositionState, d model.Decision) {
	snap := view.Snapshot
	sig := s.Strategy.Signals(in)
	log.Printf("[INFO] cycle symbol=%s price=%g rsi=%.2f prev_rsi=%.2f ema_short=%.8g ema_long=%.8g trend=%.8g golden=%t death=%t rsi_up=%t rsi_down=%t fast_rise=%t pos=%s action=%s",
		view.Symbol, view.Price, snap.RSI, snap.PrevRSI, snap.EMAShort, snap.EMALong, snap.TrendAvg,
		sig.Golden, sig.Death, sig.RSIUp, sig.RSIDown, sig.FastRise, pos.Side, d.Action)
	if d.Action != model.ActionHold {
		log.Printf("[INFO] decision %s: %s", d.Action, d.Reason)
	}
}

// classify maps a cycle error to an outcome label.
func classify(err error) string {
	var (
		die *calculator.DataInsufficientError
		ife *fund.InsufficientFundsError
		pe  *position.PersistenceError
		api *exchange.APIError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &die):
		return "skip:data_insufficient"
	case errors.As(err, &ife):
		return "skip:insufficient_funds"
	case errors.Is(err, fund.ErrBelowMinQty), errors.Is(err, exchange.ErrBelowMinQty):
		return "skip:below_min_qty"
	case errors.Is(err, exchange.ErrInsufficientBalance):
		return "skip:balance_in_use"
	case errors.As(err, &pe):
		return "error:persistence"
	case errors.Is(err, exchange.ErrNetwork):
		return "error:network"
	case errors.Is(err, broker.ErrNotFilled):
		return "error:not_filled"
	case errors.As(err, &api):
		return "error:exchange_rejected"
	default:
		return "error:unknown"
	}
}

func (s *Scheduler) report(outcome string, err error) {
	switch outcome {
	case "ok", "canceled":
	case "skip:insufficient_funds":
		log.Printf("[WARN] %v; waiting for funds", err)
	case "skip:balance_in_use":
		log.Printf("[WARN] %v; another process may be using the balance, waiting", err)
	case "skip:data_insufficient", "skip:below_min_qty":
		log.Printf("[WARN] cycle skipped (%s): %v", outcome, err)
	default:
		log.Printf("[ERROR] cycle failed (%s): %v", outcome, err)
	}
}

func (s *Scheduler) setPosition(side model.PositionSide) {
	s.mu.Lock()
	s.status.Position = side
	s.mu.Unlock()
	s.Metrics.SetPosition(side)
}

func (s *Scheduler) updateStatus(evt *recorder.CycleEvent, side model.PositionSide, traded, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.status
	st.Position = side
	st.Cycles++
	if failed {
		st.Errors++
	}
	if traded {
		st.Trades++
	}
	st.LastCycle = evt.Time
	st.LastOutcome = evt.Outcome
	st.LastAction = evt.Action
	st.LastReason = evt.Reason
	if evt.Price > 0 {
		st.Price = evt.Price
		st.Snapshot = evt.Snapshot
	}
	s.outcomes[evt.Outcome]++
}

// Status returns a copy of the current status.
func (s *Scheduler) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Report builds the summary of the period since the previous daily report.
// With reset set a new period starts.
func (s *Scheduler) Report(reset bool) string {
	s.mu.Lock()
	st := s.status
	since := s.lastReport
	outcomes := make(map[string]int, len(s.outcomes))
	for k, v := range s.outcomes {
		outcomes[k] = v
	}
	if reset {
		s.outcomes = make(map[string]int)
		s.lastReport = s.now()
	}
	s.mu.Unlock()

	var trades []model.Fill
	if s.Reports != nil {
		if counts, err := s.Reports.CountCyclesSince(since); err != nil {
			log.Printf("[WARN] daily report cycle counts: %v", err)
		} else {
			outcomes = counts
		}
		var err error
		if trades, err = s.Reports.RecentTrades(5); err != nil {
			log.Printf("[WARN] daily report trades: %v", err)
		}
	}
	return notifier.FormatDailyReport(st, outcomes, trades)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status", "status":
		return notifier.FormatStatus(s.Status())
	case "/report", "report":
		return s.Report(false)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
