// Command authflow-loadtest drives many concurrent flows against an
// in-memory gateway and reports latency percentiles per phase.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/session"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of seeded accounts")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		latency     = flag.Duration("gateway-latency", 2*time.Millisecond, "simulated provider round trip")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	gw := &loadGateway{latency: *latency, accounts: *accounts}

	cfg := authflow.DefaultConfig()
	cfg.Navigation.RedirectDelay = time.Minute
	cfg.Logout.MinDuration = 0
	cfg.Audit.Enabled = false
	cfg.Verification.MaxDispatches = 3

	engine, err := authflow.New().
		WithConfig(cfg).
		WithGateway(gw).
		WithRedis(client).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()
	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		return loginOnce(ctx, engine, r.Intn(*accounts), "pw")
	})
	resendStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		return resendOnce(ctx, engine, r.Intn(*accounts))
	})
	dupStats, rejected := runDuplicatePhase(ctx, engine, *ops, *concurrency, *accounts)

	snap := engine.MetricsSnapshot()
	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("resend", resendStats)
	printStats("double-submit", dupStats)
	fmt.Printf("duplicate submits rejected=%d rate-limited resends=%d\n",
		rejected, snap.Counters[authflow.MetricVerificationRateLimited])
}

func loginOnce(ctx context.Context, engine *authflow.Engine, account int, password string) error {
	f, err := engine.NewLoginFlow()
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.SubmitCredentials(ctx, emailFor(account), password)
	if err != nil {
		return err
	}
	if st.Status != authflow.StatusSucceeded && st.Status != authflow.StatusAwaitingVerification {
		return errors.New(st.ErrorMessage)
	}
	return nil
}

func resendOnce(ctx context.Context, engine *authflow.Engine, account int) error {
	f, err := engine.NewLoginFlow()
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.ResendVerification(ctx, emailFor(account), "pw")
	if err != nil {
		return err
	}
	if st.ErrorKind == authflow.KindTransientDispatch {
		return errors.New(st.ErrorMessage)
	}
	return nil
}

// runDuplicatePhase submits every flow twice at once; exactly one of each
// pair must reach the gateway.
func runDuplicatePhase(ctx context.Context, engine *authflow.Engine, ops, concurrency, accounts int) (phaseStats, int64) {
	var rejected int64
	stats := runPhase(ops, concurrency, func(r *rand.Rand) error {
		f, err := engine.NewLoginFlow()
		if err != nil {
			return err
		}
		defer f.Close()
		email := emailFor(r.Intn(accounts))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.SubmitCredentials(ctx, email, "pw")
			}()
		}
		wg.Wait()
		for _, err := range errs {
			if errors.Is(err, authflow.ErrFlowBusy) {
				atomic.AddInt64(&rejected, 1)
			} else if err != nil {
				return err
			}
		}
		return nil
	})
	return stats, rejected
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func emailFor(i int) string {
	return fmt.Sprintf("user-%d@example.com", i)
}

// loadGateway accepts password "pw" for every seeded account. Odd accounts
// are unverified so the verification gate and resend path get traffic.
type loadGateway struct {
	latency  time.Duration
	accounts int
}

func (g *loadGateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		return nil
	}
	t := time.NewTimer(g.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return idp.NewError(idp.CodeNetworkRequestFailed, ctx.Err().Error())
	case <-t.C:
		return nil
	}
}

func (g *loadGateway) SignInWithCredentials(ctx context.Context, email, password string) (*session.Session, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	var n int
	if _, err := fmt.Sscanf(email, "user-%d@example.com", &n); err != nil || n >= g.accounts {
		return nil, idp.NewError(idp.CodeUserNotFound, "")
	}
	if password != "pw" {
		return nil, idp.NewError(idp.CodeWrongPassword, "")
	}
	return &session.Session{
		UserID:        fmt.Sprintf("uid-%d", n),
		Email:         email,
		EmailVerified: n%2 == 0,
		Method:        session.MethodPassword,
		Provider:      "password",
		IDToken:       "tok",
	}, nil
}

func (g *loadGateway) SignUpWithCredentials(ctx context.Context, email, _ string) (*session.Session, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return nil, idp.NewError(idp.CodeEmailAlreadyInUse, "")
}

func (g *loadGateway) UpdateDisplayName(ctx context.Context, _ *session.Session, _ string) error {
	return g.wait(ctx)
}

func (g *loadGateway) SignInWithProvider(ctx context.Context, _ idp.Provider) (*session.Session, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return nil, idp.NewError(idp.CodePopupClosedByUser, "")
}

func (g *loadGateway) SendVerificationEmail(ctx context.Context, _ *session.Session) error {
	return g.wait(ctx)
}

func (g *loadGateway) SignOut(_ context.Context, s *session.Session) error {
	s.Clear()
	return nil
}
