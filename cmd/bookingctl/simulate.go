package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

type simConfig struct {
	Duration    time.Duration
	Workers     int
	BookRatio   float64
	CancelRatio float64
	ReadRatio   float64
}

func (c *simConfig) normalize() error {
	if c.Workers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	total := c.BookRatio + c.CancelRatio + c.ReadRatio
	if total <= 0 {
		return fmt.Errorf("at least one ratio must be > 0")
	}
	c.BookRatio /= total
	c.CancelRatio /= total
	c.ReadRatio /= total
	return nil
}

func simulateCmd(opts *rootOptions) *cobra.Command {
	cfg := simConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Hammer the backend with concurrent bookings and report conflicts and latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			if err := cfg.normalize(); err != nil {
				return err
			}

			sim, err := newSimulator(cmd.Context(), cfg, opts.client(), opts.token, time.Now)
			if err != nil {
				return err
			}
			sim.Run(cmd.Context())
			sim.PrintReport(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().DurationVar(&cfg.Duration, "duration", 30*time.Second, "how long to run")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 10, "concurrent workers")
	cmd.Flags().Float64Var(&cfg.BookRatio, "book-ratio", 0.5, "share of booking requests")
	cmd.Flags().Float64Var(&cfg.CancelRatio, "cancel-ratio", 0.2, "share of cancellations")
	cmd.Flags().Float64Var(&cfg.ReadRatio, "read-ratio", 0.3, "share of appointment list reads")

	return cmd
}

// bookedPool collects appointment ids seen by list reads so cancellations
// have something to work on.
type bookedPool struct {
	mu  sync.RWMutex
	ids []string
}

func (p *bookedPool) Set(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = ids
}

func (p *bookedPool) Random(rng *rand.Rand) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.ids) == 0 {
		return "", false
	}
	return p.ids[rng.Intn(len(p.ids))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}
	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Book   OperationMetrics
	Cancel OperationMetrics
	List   OperationMetrics
}

type simulator struct {
	config  simConfig
	api     *backend.Client
	token   string
	doctors []backend.Doctor
	days    map[string][]slot.Day
	pool    bookedPool
	metrics Metrics
}

// newSimulator plans every doctor's week once. Workers book from that stale
// plan, so slots taken during the run surface as conflicts.
func newSimulator(ctx context.Context, cfg simConfig, api *backend.Client, token string, now func() time.Time) (*simulator, error) {
	docs, err := api.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}

	s := &simulator{
		config: cfg,
		api:    api,
		token:  token,
		days:   make(map[string][]slot.Day),
	}
	for _, d := range docs {
		if !d.Available {
			continue
		}
		days := slot.Plan(now(), d.SlotsBooked)
		if len(days) == 0 {
			continue
		}
		s.doctors = append(s.doctors, d)
		s.days[d.ID] = days
	}
	if len(s.doctors) == 0 {
		return nil, errors.New("no bookable doctors")
	}
	return s, nil
}

func (s *simulator) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
}

func (s *simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookRatio:
				s.doBook(ctx, rng)
			case r < s.config.BookRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			default:
				s.doList(ctx)
			}
		}
	}
}

func (s *simulator) doBook(ctx context.Context, rng *rand.Rand) {
	doc := s.doctors[rng.Intn(len(s.doctors))]
	days := s.days[doc.ID]
	day := days[rng.Intn(len(days))]
	sl := day[rng.Intn(len(day))]

	start := time.Now()
	_, err := s.api.BookAppointment(ctx, s.token, backend.BookRequest{
		DocID:    doc.ID,
		SlotDate: sl.DateKey(),
		SlotTime: sl.Label,
	})
	s.record(ctx, &s.metrics.Book, time.Since(start), err)
}

func (s *simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.Random(rng)
	if !ok {
		return
	}

	start := time.Now()
	_, err := s.api.CancelAppointment(ctx, s.token, id)
	s.record(ctx, &s.metrics.Cancel, time.Since(start), err)
}

func (s *simulator) doList(ctx context.Context) {
	start := time.Now()
	list, err := s.api.MyAppointments(ctx, s.token)
	s.record(ctx, &s.metrics.List, time.Since(start), err)
	if err != nil {
		return
	}

	ids := make([]string, 0, len(list))
	for _, a := range list {
		if !a.Cancelled {
			ids = append(ids, a.ID)
		}
	}
	s.pool.Set(ids)
}

// record counts a backend rejection as a conflict. Requests cut off by the
// end of the run are dropped.
func (s *simulator) record(ctx context.Context, om *OperationMetrics, latency time.Duration, err error) {
	if err != nil && ctx.Err() != nil {
		return
	}
	var apiErr *backend.APIError
	om.Record(latency, err == nil, errors.As(err, &apiErr))
}

func (s *simulator) PrintReport(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Duration: %s\n", s.config.Duration)
	fmt.Fprintf(w, "Workers: %d\n", s.config.Workers)
	fmt.Fprintf(w, "Doctors: %d\n", len(s.doctors))
	fmt.Fprintln(w)

	printOperationReport(w, "Book", &s.metrics.Book)
	printOperationReport(w, "Cancel", &s.metrics.Cancel)
	printOperationReport(w, "My appointments", &s.metrics.List)
}

func printOperationReport(w io.Writer, name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Fprintf(w, "  Rejected: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Fprintf(w, "  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Fprintln(w)
}
