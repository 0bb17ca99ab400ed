// README: Benchmark cases: environment checks, scheduling scenarios over HTTP, and solver throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ridesched/internal/modules/scheduling"
	"ridesched/internal/types"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

const benchDay = "2026-03-02"

func at(hhmm string) string { return benchDay + "T" + hhmm + ":00Z" }

func ride(id, start, end string) scheduling.RideRequest {
	return scheduling.RideRequest{
		ID:            types.ID(id),
		StartLocation: "Depot",
		EndLocation:   "Clinic",
		StartTime:     at(start),
		EndTime:       at(end),
		RiderID:       types.ID("rider_" + id),
	}
}

func driver(id, start, end string) scheduling.Driver {
	return scheduling.Driver{ID: types.ID(id), Name: id, ShiftStart: start, ShiftEnd: end}
}

type scenario struct {
	name     string
	requests []scheduling.RideRequest
	drivers  []scheduling.Driver
	status   scheduling.Status
	// drivers expected per request when status is solved
	want []string
}

func scenarios() []scenario {
	return []scenario{
		{
			name:     "A: one driver covers two disjoint rides",
			requests: []scheduling.RideRequest{ride("r1", "09:00", "10:00"), ride("r2", "11:00", "12:00")},
			drivers:  []scheduling.Driver{driver("d1", "08:00", "17:00")},
			status:   scheduling.StatusSolved,
			want:     []string{"d1", "d1"},
		},
		{
			name:     "B: overlapping rides with one driver",
			requests: []scheduling.RideRequest{ride("r1", "09:00", "10:00"), ride("r2", "09:30", "10:30")},
			drivers:  []scheduling.Driver{driver("d1", "08:00", "17:00")},
			status:   scheduling.StatusExhausted,
		},
		{
			name:     "C: overlapping rides split across two drivers",
			requests: []scheduling.RideRequest{ride("r1", "09:00", "10:00"), ride("r2", "09:30", "10:30")},
			drivers:  []scheduling.Driver{driver("d1", "08:00", "17:00"), driver("d2", "08:00", "17:00")},
			status:   scheduling.StatusSolved,
			want:     []string{"d2", "d1"},
		},
		{
			name:     "D: ride outside every shift",
			requests: []scheduling.RideRequest{ride("r1", "19:00", "20:00")},
			drivers:  []scheduling.Driver{driver("d1", "08:00", "17:00"), driver("d2", "06:00", "14:00")},
			status:   scheduling.StatusExhausted,
		},
		{
			name:   "E: empty input",
			status: scheduling.StatusSolved,
		},
	}
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	tcs := []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "DB reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "Redis reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "tables from migrations/0001_init.sql",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: health",
			Focus: "API responds",
			Run: func(ctx context.Context, r *Runner) Result {
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
				start := time.Now()
				resp, err := r.httpc.Do(req)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},
		httpStatusCase("API: malformed body -> 400", base+"/api/schedules", "{", http.StatusBadRequest),
		httpStatusCase("API: invalid ride -> 400", base+"/api/schedules", map[string]any{
			"requests": []scheduling.RideRequest{ride("r1", "10:00", "09:00")},
			"drivers":  []scheduling.Driver{driver("d1", "08:00", "17:00")},
		}, http.StatusBadRequest),
		httpStatusCase("API: unknown batch -> 404", base+"/api/batches/bench_missing/schedule", nil, http.StatusNotFound),
		httpStatusCase("API: empty batch list -> 400", base+"/api/schedules/batches", map[string]any{"batch_ids": []string{}}, http.StatusBadRequest),
	}

	for _, sc := range scenarios() {
		tcs = append(tcs, scenarioCase(base+"/api/schedules", sc))
	}

	tcs = append(tcs,
		TestCase{
			Name:  "Perf: inline schedule throughput",
			Focus: "POST /api/schedules under load",
			Run: func(ctx context.Context, r *Runner) Result {
				sc := scenarios()[2]
				return perfLoad(ctx, r, base+"/api/schedules", map[string]any{
					"requests": sc.requests,
					"drivers":  sc.drivers,
				})
			},
		},
		TestCase{
			Name:  "Perf: solver search",
			Focus: "in-process search on a generated batch",
			Run: func(ctx context.Context, r *Runner) Result {
				return solverLoad(ctx, r.cfg.SolverRides, r.cfg.SolverDrivers)
			},
		},
	)
	return tcs
}

func postJSON(ctx context.Context, r *Runner, url string, body any) (*http.Response, time.Duration, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	return resp, time.Since(start), err
}

func httpStatusCase(name, url string, body any, want int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			resp, latency, err := postJSON(ctx, r, url, body)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			note := fmt.Sprintf("status=%d", resp.StatusCode)
			if resp.StatusCode == want {
				return Result{Status: "PASS", Latency: latency, Note: note}
			}
			return Result{Status: "FAIL", Latency: latency, Note: note}
		},
	}
}

func scenarioCase(url string, sc scenario) TestCase {
	return TestCase{
		Name:  "Scenario " + sc.name,
		Focus: "search outcome over HTTP",
		Run: func(ctx context.Context, r *Runner) Result {
			resp, latency, err := postJSON(ctx, r, url, map[string]any{
				"requests": nonNil(sc.requests),
				"drivers":  nonNil(sc.drivers),
			})
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			var res scheduling.Result
			if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
				return Result{Status: "FAIL", Latency: latency, Note: err.Error()}
			}
			if res.Status != sc.status {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%s want=%s", res.Status, sc.status)}
			}
			if len(res.Assignments) != len(sc.want) {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("assignments=%d want=%d", len(res.Assignments), len(sc.want))}
			}
			for i, a := range res.Assignments {
				if string(a.DriverID) != sc.want[i] {
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("%s -> %s want %s", a.ID, a.DriverID, sc.want[i])}
				}
			}
			return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("cached=%t", res.Cached)}
		},
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				if resp.StatusCode != http.StatusOK {
					errCount++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

// solverLoad staggers rides every 15 minutes across the day so most drivers
// can take several rides and the search has to backtrack on the tail.
func solverLoad(ctx context.Context, rides, drivers int) Result {
	requests := make([]scheduling.RideRequest, 0, rides)
	for i := 0; i < rides; i++ {
		startMin := 6*60 + (i*15)%(14*60)
		s := fmt.Sprintf("%02d:%02d", startMin/60, startMin%60)
		e := fmt.Sprintf("%02d:%02d", (startMin+40)/60, (startMin+40)%60)
		requests = append(requests, ride(fmt.Sprintf("r%d", i), s, e))
	}
	ds := make([]scheduling.Driver, 0, drivers)
	for i := 0; i < drivers; i++ {
		ds = append(ds, driver(fmt.Sprintf("d%d", i), "05:00", "22:00"))
	}

	res, err := scheduling.Solve(ctx, requests, ds, scheduling.Options{MaxNodes: 5_000_000})
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	return Result{
		Status:  "PASS",
		Latency: res.Stats.Elapsed,
		Note: fmt.Sprintf("status=%s popped=%d pushed=%d depth=%d",
			res.Status, res.Stats.NodesPopped, res.Stats.NodesPushed, res.Stats.MaxStackDepth),
	}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
