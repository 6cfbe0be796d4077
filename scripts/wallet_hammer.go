package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Hammers the withdraw endpoint with concurrent workers to confirm the
// ledger never over-draws under contention, optionally watching the balance
// row directly.

type stats struct {
	sent     uint64
	ok       uint64
	rejected uint64
	errCount uint64
	mu       sync.Mutex
	statuses map[int]uint64
}

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:8080", "server base url")
	userID := flag.String("user", "", "user id")
	amount := flag.String("amount", "0.50", "withdrawal amount per request")
	workers := flag.Int("workers", 2, "number of concurrent workers")
	count := flag.Int("count", 10, "total requests (ignored if -forever)")
	forever := flag.Bool("forever", false, "run until interrupted")
	delay := flag.Duration("delay", 0, "delay between requests per worker (e.g. 10ms)")
	checkDB := flag.Bool("check-db", false, "poll db for balance changes")
	poll := flag.Duration("poll", time.Second, "db poll interval (e.g. 200ms)")
	flag.Parse()

	if *userID == "" {
		fmt.Println("usage: go run ./scripts/wallet_hammer.go --user <id> [--amount 0.50] [--workers 2] [--count 100|--forever] [--check-db]")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	var st stats
	st.statuses = make(map[int]uint64)

	var watcher *dbWatcher
	if *checkDB {
		var err error
		watcher, err = startDBWatcher(ctx, *userID, *poll)
		if err != nil {
			fmt.Printf("db watcher failed: %v\n", err)
			os.Exit(1)
		}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := fmt.Sprintf("%s/api/v1/wallet/%s/withdraw", *baseURL, *userID)
	body := fmt.Sprintf(`{"amount": %s, "method": "bank_transfer"}`, *amount)

	run := func(id int) {
		for {
			if !*forever {
				n := atomic.AddUint64(&st.sent, 1)
				if n > uint64(*count) {
					return
				}
			} else {
				atomic.AddUint64(&st.sent, 1)
			}

			resp, err := client.Post(endpoint, "application/json", bytes.NewReader([]byte(body)))
			if err != nil {
				atomic.AddUint64(&st.errCount, 1)
				fmt.Printf("[W%d] error: %v\n", id, err)
			} else {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				st.mu.Lock()
				st.statuses[resp.StatusCode]++
				st.mu.Unlock()
				switch {
				case resp.StatusCode == http.StatusAccepted:
					atomic.AddUint64(&st.ok, 1)
				case resp.StatusCode == http.StatusUnprocessableEntity:
					atomic.AddUint64(&st.rejected, 1)
				default:
					atomic.AddUint64(&st.errCount, 1)
					fmt.Printf("[W%d] unexpected status %d\n", id, resp.StatusCode)
				}
			}

			if *delay > 0 {
				select {
				case <-time.After(*delay):
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			run(id + 1)
		}(i)
	}
	wg.Wait()

	if watcher != nil {
		watcher.Stop()
	}

	st.mu.Lock()
	fmt.Printf("summary sent=%d ok=%d insufficient=%d errors=%d statuses=%v\n",
		st.sent, st.ok, st.rejected, st.errCount, st.statuses)
	st.mu.Unlock()
}

type dbWatcher struct {
	pool        *pgxpool.Pool
	userID      string
	lastAvail   string
	lastPending string
	updateCount int
	cancel      context.CancelFunc
	done        chan struct{}
}

func startDBWatcher(ctx context.Context, userID string, poll time.Duration) (*dbWatcher, error) {
	pool, err := pgxpool.New(ctx, buildDSN())
	if err != nil {
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &dbWatcher{
		pool:   pool,
		userID: userID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go w.loop(wctx, poll)
	return w, nil
}

func (w *dbWatcher) loop(ctx context.Context, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var available, pending string
			err := w.pool.QueryRow(ctx,
				`SELECT available::text, pending::text FROM user_balances WHERE user_id = $1`,
				w.userID,
			).Scan(&available, &pending)
			if err != nil {
				continue
			}
			if w.lastAvail != "" && (available != w.lastAvail || pending != w.lastPending) {
				w.updateCount++
				fmt.Printf("db-watch change: available %s -> %s, pending %s -> %s\n",
					w.lastAvail, available, w.lastPending, pending)
			}
			w.lastAvail = available
			w.lastPending = pending
		}
	}
}

func (w *dbWatcher) Stop() {
	w.cancel()
	<-w.done
	w.pool.Close()
	fmt.Printf("db-watch summary available=%s pending=%s updates=%d\n", w.lastAvail, w.lastPending, w.updateCount)
}

func buildDSN() string {
	db := getEnv("POSTGRES_DB", "task_wallet")
	user := getEnv("POSTGRES_USER", "task_wallet")
	pass := getEnv("POSTGRES_PASSWORD", "task_wallet")
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, db)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
